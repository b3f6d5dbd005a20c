package entity

import "time"

// LockoutThreshold is the number of consecutive failed attempts that trigger
// a temporary lockout.
const LockoutThreshold int32 = 5

// lockoutSteps are the escalating lockout durations. The first lockout uses
// the first step; repeated lockouts walk the slice and stay on the last step.
var lockoutSteps = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	1 * time.Hour,
}

// LockoutDuration returns the lockout length for the given escalation count.
// The count is how many lockouts the account has already been through.
func LockoutDuration(escalations int32) time.Duration {
	if escalations < 0 {
		escalations = 0
	}
	if int(escalations) >= len(lockoutSteps) {
		return lockoutSteps[len(lockoutSteps)-1]
	}

	return lockoutSteps[escalations]
}
