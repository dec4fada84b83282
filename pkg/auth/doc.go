/*
Package auth manages the access token used for every catalog call.

	caller ──► Token(region) ──► cached & outside margin? ──► return
	                                   │ no
	                                   ▼
	                        in-flight refresh? ──► join it
	                                   │ no
	                                   ▼
	                   retry.Do(POST <auth>/refresh) ──► store token
	                                   │ failure
	                                   ▼
	                              Revoke + *Error

🎯 Purpose:
- Keeps one access token per Manager, refreshed from a long-lived secret
- Guarantees at most one refresh at a time (flight.Slot)
- Hands out tokens only while now < ExpiresAt - SafetyMargin

⚠️ Revocation:
Revoke drops the token and the pending refresh handle. A refresh that
finishes afterwards still answers the callers that joined it but is not
cached. A rotated refresh token returned by the upstream is used for the next
refresh until Revoke.

🔍 Example:

	mgr, err := auth.New(auth.OptionsFromSettings(settings, secrets))
	if err != nil {
		return err
	}
	tok, err := mgr.Token(ctx, "EU")
*/
package auth
