// FILE: haystackauth/src/internal/core/const.go
package core

// SCRAM-SHA-256 parameters
const (
	ScramHashName     = "SHA-256"
	ScramKeyLen       = 32
	ClientNonceLen    = 16
	GS2Header         = "n,,"
	ChannelBindingB64 = "biws" // base64("n,,")
)

// Authorization schemes used by the handshake
const (
	SchemeHello  = "HELLO"
	SchemeScram  = "SCRAM"
	SchemeBearer = "Bearer"
)

// Header names read from handshake responses
const (
	HeaderAuthorization   = "Authorization"
	HeaderWWWAuthenticate = "WWW-Authenticate"
	HeaderAuthInfo        = "Authentication-Info"
)

// Client defaults
const (
	UserAgentName       = "haystackauth"
	DefaultAuthPath     = "/ui"
	DefaultValidatePath = "/api/about"
	DefaultTimeoutMS    = 5000
	MinTimeoutMS        = 100
	MaxResponseBytes    = 1 << 20
)
