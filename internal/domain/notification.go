package domain

// NotificationKind identifies an outbound email template.
type NotificationKind string

const (
	NotifyRoleRequest   NotificationKind = "role_request"  // to reviewer, with approve/deny links
	NotifyRoleApproved  NotificationKind = "role_approved" // to requester
	NotifyRoleDenied    NotificationKind = "role_denied"   // to requester
	NotifyPasswordReset NotificationKind = "password_reset"
	NotifySupport       NotificationKind = "support" // contact form relay
)

// Notification is a mail intent produced by a service. Services never
// talk to SMTP directly; they emit intents and the dispatcher delivers
// them asynchronously. Delivery failure never fails the request that
// produced the intent.
type Notification struct {
	Kind NotificationKind
	To   string

	// Template data. Only the fields relevant to the kind are set.
	UserName      string
	UserEmail     string
	RequestedRole Role
	ApproveURL    string
	DenyURL       string
	ResetURL      string
	Subject       string
	Body          string
}
