package aws

import (
	"context"
	stderrors "errors"
	"net"
	"strings"

	"github.com/aws/smithy-go"

	apperrors "aws-cost/internal/errors"
)

var deniedCodes = map[string]bool{
	"AccessDenied":                true,
	"AccessDeniedException":       true,
	"UnauthorizedOperation":       true,
	"UnrecognizedClientException": true,
	"InvalidClientTokenId":        true,
	"ExpiredToken":                true,
	"ExpiredTokenException":       true,
	"AuthFailure":                 true,
	"SignatureDoesNotMatch":       true,
}

var throttledCodes = map[string]bool{
	"Throttling":                true,
	"ThrottlingException":       true,
	"TooManyRequestsException":  true,
	"RequestLimitExceeded":      true,
	"LimitExceededException":    true,
	"RequestThrottledException": true,
}

var notFoundCodes = map[string]bool{
	"ResourceNotFoundException":   true,
	"NoSuchBucket":                true,
	"DBInstanceNotFound":          true,
	"DBInstanceNotFoundFault":     true,
	"ClusterNotFound":             true,
	"ClusterNotFoundFault":        true,
	"InvalidInstanceID.NotFound":  true,
	"InvalidInstanceID.Malformed": true,
}

var unsupportedCodes = map[string]bool{
	"UnsupportedOperation":          true,
	"InvalidAction":                 true,
	"OptInRequired":                 true,
	"SubscriptionRequiredException": true,
}

// notOfferedMarkers appear in messages when a service does not exist in a region
var notOfferedMarkers = []string{"not available in", "not supported in", "is not supported in this region"}

// Classify converts an SDK error into a typed error. The AWS error code is
// kept so callers can report it; op names the failed call.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *apperrors.Error
	if stderrors.As(err, &typed) {
		return err
	}

	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return apperrors.Wrap(apperrors.TypeUnavailable, op+" timed out", err).WithCode("RequestTimeout")
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		msg := apiErr.ErrorMessage()
		t := apperrors.TypeUnknown
		switch {
		case deniedCodes[code]:
			t = apperrors.TypeDenied
		case throttledCodes[code]:
			t = apperrors.TypeThrottled
		case notFoundCodes[code]:
			t = apperrors.TypeNotFound
		case unsupportedCodes[code] || notOffered(msg):
			t = apperrors.TypeNotSupported
		case code == "DataUnavailableException" || code == "ServiceUnavailable" || code == "InternalFailure":
			t = apperrors.TypeUnavailable
		}
		return apperrors.Wrapf(t, err, "%s: %s", op, msg).WithCode(code)
	}

	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return apperrors.Wrap(apperrors.TypeNotSupported, op+": no endpoint in region", err).WithCode("EndpointNotFound")
		}
		return apperrors.Wrap(apperrors.TypeUnavailable, op+": endpoint unreachable", err).WithCode("EndpointUnreachable")
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return apperrors.Wrap(apperrors.TypeUnavailable, op+": network error", err).WithCode("NetworkError")
	}

	if notOffered(err.Error()) {
		return apperrors.Wrap(apperrors.TypeNotSupported, op, err)
	}
	return apperrors.Wrap(apperrors.TypeUnknown, op, err)
}

func notOffered(msg string) bool {
	lower := strings.ToLower(msg)
	for _, m := range notOfferedMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
