package entity

// Template is an email template rendered with html/template.
type Template struct {
	TriggerKey TriggerKey
	Subject    string
	Body       string
}

var templates = map[TriggerKey]Template{
	TriggerKeyEmailVerify: {
		TriggerKey: TriggerKeyEmailVerify,
		Subject:    "Verify your email address",
		Body: `<p>Hi,</p>
<p>Thanks for signing up. Please confirm your email address by clicking the link below:</p>
<p><a href="{{.verify_url}}">Verify my email</a></p>
<p>If you did not create this account, you can safely ignore this message.</p>
<p>{{.company_name}} &middot; {{.year}}</p>`,
	},
	TriggerKeyPasswordReset: {
		TriggerKey: TriggerKeyPasswordReset,
		Subject:    "Reset your password",
		Body: `<p>Hi,</p>
<p>We received a request to reset the password for your account. Click the link below to choose a new one:</p>
<p><a href="{{.reset_url}}">Reset my password</a></p>
<p>If you did not request this, no action is needed. Your password has not changed.</p>
<p>Questions? Contact us at {{.support_email}}.</p>
<p>{{.company_name}} &middot; {{.year}}</p>`,
	},
	TriggerKeySecurityAlert: {
		TriggerKey: TriggerKeySecurityAlert,
		Subject:    "Security alert on your account",
		Body: `<p>Hi,</p>
<p>{{.headline}}</p>
<p>Time: {{.occurred_at}}</p>
<p>If this was you, no action is needed. If you do not recognize this activity, reset your password immediately and contact {{.support_email}}.</p>
<p>{{.company_name}} &middot; {{.year}}</p>`,
	},
}

// TemplateFor returns the built-in template for the trigger key.
func TemplateFor(tk TriggerKey) (Template, bool) {
	tpl, ok := templates[tk]
	return tpl, ok
}
