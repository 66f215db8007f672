// Package auth verifies the bearer tokens websocket clients present during
// the connection handshake.
//
// TokenAuthenticator validates HMAC-SHA256 access tokens issued by the
// account service and maps their claims to a gateway identity:
//
//	authenticator, err := auth.NewTokenAuthenticator(auth.Config{
//		SigningKey: signingKey,
//	})
//	if err != nil {
//		return err
//	}
//	gw := gateway.New(authenticator)
//
// Only HS256 is accepted; tokens signed with any other method are rejected
// before signature verification.
package auth
