package user

// AuthorizationRequest is a typed request for a specific capability, decided
// by the authorities attached to a user.
//
// The set of request variants is closed: every variant lives in this package
// and implements the unexported marker method. A granted request is returned
// from Authority.Authorize, possibly annotated with resolved values (for
// example the maximum transfer rates). A nil result means the request was
// refused, or that no authority could decide it; callers must treat nil as
// "no special permission or limit", never as an error.
type AuthorizationRequest interface {
	authorizationRequest()
}

// WriteRequest asks whether the user may modify the filesystem at a given
// path. The zero path means the user's entire filesystem view.
type WriteRequest struct {
	// Path is the virtual path the write applies to, "/" for any path.
	Path string
}

// NewWriteRequest creates a WriteRequest covering the whole view.
func NewWriteRequest() *WriteRequest {
	return &WriteRequest{Path: "/"}
}

func (*WriteRequest) authorizationRequest() {}

// ConcurrentLoginRequest asks for the user's concurrent-login policy.
//
// The MaxConcurrentLogins and MaxConcurrentLoginsPerIP fields are resolved
// values filled in by the deciding authority; zero means unlimited.
type ConcurrentLoginRequest struct {
	MaxConcurrentLogins      int
	MaxConcurrentLoginsPerIP int
}

func (*ConcurrentLoginRequest) authorizationRequest() {}

// TransferRateRequest asks for the user's transfer-rate limits.
//
// The rate fields are resolved values in bytes per second filled in by the
// deciding authority; zero means unlimited.
type TransferRateRequest struct {
	MaxUploadRate   int
	MaxDownloadRate int
}

func (*TransferRateRequest) authorizationRequest() {}
