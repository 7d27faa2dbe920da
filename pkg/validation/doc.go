// Package validation enforces boundary input rules: email shape and
// normalization, the password policy, and the regional phone format.
package validation
