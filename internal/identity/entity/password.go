package entity

// PasswordHistoryLimit is how many prior password hashes are retained and
// checked against reuse, in addition to the current credential.
const PasswordHistoryLimit int32 = 5
