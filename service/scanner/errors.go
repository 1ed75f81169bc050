package scanner

import (
	"errors"
	"strings"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
)

// Error codes AWS returns for bad, expired or unauthorized credentials.
var credentialErrorCodes = map[string]struct{}{
	"UnrecognizedClientException": {},
	"InvalidClientTokenId":        {},
	"AccessDenied":                {},
	"AccessDeniedException":       {},
	"UnauthorizedOperation":       {},
	"SignatureDoesNotMatch":       {},
	"ExpiredToken":                {},
	"ExpiredTokenException":       {},
	"InvalidSignatureException":   {},
}

// isCredentialError reports whether the error indicates the account's
// credentials are unusable, as opposed to a service being unreachable or
// simply not enabled.
func isCredentialError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := credentialErrorCodes[apiErr.ErrorCode()]; ok {
			return true
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 403 {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "credentials") || strings.Contains(msg, "AccessDenied")
}
