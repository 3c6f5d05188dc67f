// Package auth resolves the session token used for REST calls.
//
// A token comes from one of:
//   - an explicit value (FromToken)
//   - an environment variable (FromEnv, default TASTYWORKS_API_TOKEN)
//   - the preferences file of an installed desktop client (FromInstalled)
//
// Credential login (POST /sessions) lives in internal/api and also yields a Session.
package auth
