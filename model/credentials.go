package model

// Credentials is the AWS credential triple stored per account. The scanner
// treats it as opaque: it is handed to the SDK config loader and nowhere
// else.
type Credentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	SessionToken    string `json:"sessionToken,omitempty"`
}
