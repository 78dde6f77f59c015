package spider

// DefaultUserAgent is a realistic desktop browser string stamped on requests
// when no explicit user agent is configured
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36"

// UserAgentMiddleware stamps a configured User-Agent header onto every request
type UserAgentMiddleware struct {
	userAgent string
}

// NewUserAgentMiddleware creates a user-agent middleware; an empty userAgent
// falls back to DefaultUserAgent
func NewUserAgentMiddleware(userAgent string) *UserAgentMiddleware {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &UserAgentMiddleware{userAgent: userAgent}
}

// Name identifies the middleware in logs
func (m *UserAgentMiddleware) Name() string {
	return "user_agent"
}

// Process returns a copy of the request with the User-Agent header set
func (m *UserAgentMiddleware) Process(req *Request) (*Request, error) {
	out := req.Clone()
	out.Headers["User-Agent"] = m.userAgent
	return out, nil
}
