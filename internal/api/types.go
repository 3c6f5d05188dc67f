package api

// DefaultBaseURL is the production REST endpoint.
const DefaultBaseURL = "https://api.tastyworks.com"

// envelope wraps every REST response.
type envelope[T any] struct {
	Data    T          `json:"data"`
	Error   *errorBody `json:"error,omitempty"`
	Context string     `json:"context,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LoginRequest is the body of POST /sessions.
type LoginRequest struct {
	Login      string `json:"login"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember-me"`
}

// SessionUser identifies the logged-in user.
type SessionUser struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	ExtID    string `json:"external-id"`
}

// LoginResponse is the data of a successful login.
type LoginResponse struct {
	User         SessionUser `json:"user"`
	SessionToken string      `json:"session-token"`
	RememberMe   string      `json:"remember-token,omitempty"`
}

// QuoteToken holds the credentials for the quote streamer.
type QuoteToken struct {
	Token     string `json:"token"`
	DxLinkURL string `json:"dxlink-url"`
	Level     string `json:"level"`
}
