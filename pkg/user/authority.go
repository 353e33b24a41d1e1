package user

// Authority is a permission-policy object attached to a user. A typical
// example is write access or a cap on concurrent logins.
//
// Authorities are stateless: Authorize must not mutate shared state, and the
// same authority value may be consulted concurrently by many sessions.
type Authority interface {
	// CanAuthorize reports whether this authority can decide the given
	// request variant. Authorities that cannot decide a variant are skipped
	// during evaluation.
	CanAuthorize(request AuthorizationRequest) bool

	// Authorize decides the request. The returned request may carry resolved
	// values (rates, limits). A nil return means the request is refused.
	// Authorize on a request the authority cannot decide returns nil.
	Authorize(request AuthorizationRequest) AuthorizationRequest
}

// WritePermission grants filesystem write access.
type WritePermission struct{}

// NewWritePermission creates an authority granting write access.
func NewWritePermission() *WritePermission {
	return &WritePermission{}
}

func (*WritePermission) CanAuthorize(request AuthorizationRequest) bool {
	_, ok := request.(*WriteRequest)
	return ok
}

func (p *WritePermission) Authorize(request AuthorizationRequest) AuthorizationRequest {
	if req, ok := request.(*WriteRequest); ok {
		return req
	}
	return nil
}

// ConcurrentLoginPermission decides concurrent-login policy requests,
// annotating them with the configured limits. Zero limits mean unlimited.
type ConcurrentLoginPermission struct {
	MaxConcurrentLogins      int
	MaxConcurrentLoginsPerIP int
}

func (*ConcurrentLoginPermission) CanAuthorize(request AuthorizationRequest) bool {
	_, ok := request.(*ConcurrentLoginRequest)
	return ok
}

func (p *ConcurrentLoginPermission) Authorize(request AuthorizationRequest) AuthorizationRequest {
	req, ok := request.(*ConcurrentLoginRequest)
	if !ok {
		return nil
	}
	req.MaxConcurrentLogins = p.MaxConcurrentLogins
	req.MaxConcurrentLoginsPerIP = p.MaxConcurrentLoginsPerIP
	return req
}

// TransferRatePermission decides transfer-rate requests, annotating them with
// the configured upload and download limits in bytes per second. Zero means
// unlimited.
type TransferRatePermission struct {
	MaxUploadRate   int
	MaxDownloadRate int
}

func (*TransferRatePermission) CanAuthorize(request AuthorizationRequest) bool {
	_, ok := request.(*TransferRateRequest)
	return ok
}

func (p *TransferRatePermission) Authorize(request AuthorizationRequest) AuthorizationRequest {
	req, ok := request.(*TransferRateRequest)
	if !ok {
		return nil
	}
	req.MaxUploadRate = p.MaxUploadRate
	req.MaxDownloadRate = p.MaxDownloadRate
	return req
}
