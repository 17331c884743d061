package cli

type Options struct {
	URL     string `short:"u" long:"url" description:"storefront API url, overrides config"`
	Config  string `short:"c" long:"config" description:"yaml config file"`
	Session string `short:"s" long:"session" description:"session afs URL, overrides config"`
	Phone   string `short:"p" long:"phone" description:"phone number for login/verify"`
	OTP     string `short:"o" long:"otp" description:"one-time password for verify"`
	Method  string `short:"m" long:"method" description:"request method" default:"GET"`
	Data    string `short:"d" long:"data" description:"request JSON body"`
	Force   bool   `short:"f" long:"force" description:"refresh even when the access token is still valid"`
	Args    struct {
		Command string `positional-arg-name:"command" description:"login | verify | status | refresh | request | logout" required:"yes"`
		Path    string `positional-arg-name:"path" description:"API path for request"`
	} `positional-args:"yes"`
}
