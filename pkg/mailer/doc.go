// Package mailer delivers password-reset notifications. It is an external
// collaborator of the auth flows: every send is best-effort.
package mailer
