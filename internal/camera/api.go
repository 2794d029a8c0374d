package camera

// Wire types of the camera's CGI JSON API. Every request and response is a
// one-element array of command envelopes.

type loginRequest struct {
	Cmd   string     `json:"cmd"`
	Param loginParam `json:"param"`
}

type loginParam struct {
	User loginUser `json:"User"`
}

type loginUser struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type loginValue struct {
	Token struct {
		LeaseTime int    `json:"leaseTime"`
		Name      string `json:"name"`
	} `json:"Token"`
}

type ptzRequest struct {
	Cmd   string   `json:"cmd"`
	Param ptzParam `json:"param"`
}

type ptzParam struct {
	Channel int    `json:"channel"`
	Op      string `json:"op"`
	ID      int    `json:"id"`
	Speed   int    `json:"speed"`
}

type presetRequest struct {
	Cmd    string       `json:"cmd"`
	Action int          `json:"action"`
	Param  channelParam `json:"param"`
}

type channelParam struct {
	Channel int `json:"channel"`
}

type presetValue struct {
	PtzPreset []struct {
		Channel int    `json:"channel"`
		Enable  int    `json:"enable"`
		ID      int    `json:"id"`
		Name    string `json:"name"`
	} `json:"PtzPreset"`
}

type apiError struct {
	RspCode int    `json:"rspCode"`
	Detail  string `json:"detail"`
}

type apiResponse[T any] struct {
	Cmd   string    `json:"cmd"`
	Code  int       `json:"code"`
	Value T         `json:"value"`
	Error *apiError `json:"error,omitempty"`
}

// rspCode returned when the token is missing or expired
const rspCodeLoginRequired = -6
