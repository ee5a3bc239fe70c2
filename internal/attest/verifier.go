// Package attest verifies device integrity tokens against the Play
// Integrity decode API.
package attest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/lumident/lumident/internal/apperr"
)

// Verdicts that satisfy device integrity. Basic integrity is accepted
// so sideloaded but unmodified devices keep working.
const (
	VerdictMeetsDevice = "MEETS_DEVICE_INTEGRITY"
	VerdictMeetsBasic  = "MEETS_BASIC_INTEGRITY"
)

// Result is the outcome of a decoded integrity token.
type Result struct {
	OK                  bool     `json:"ok"`
	AppLicensingVerdict string   `json:"appLicensingVerdict"`
	Verdicts            []string `json:"verdicts"`
}

// Verifier decodes integrity tokens through the attestation API.
type Verifier struct {
	baseURL     string
	packageName string
	accessToken string
	http        *http.Client
}

// NewVerifier creates a Verifier for the given application package.
func NewVerifier(baseURL, packageName, accessToken string, timeout time.Duration) *Verifier {
	return &Verifier{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		packageName: packageName,
		accessToken: accessToken,
		http:        &http.Client{Timeout: timeout},
	}
}

type decodeRequest struct {
	IntegrityToken string `json:"integrityToken"`
}

type decodeResponse struct {
	DeviceIntegrity struct {
		DeviceRecognitionVerdict []string `json:"deviceRecognitionVerdict"`
	} `json:"deviceIntegrity"`
	AppLicensingVerdict string `json:"appLicensingVerdict"`
}

// Verify decodes a client-supplied integrity token and judges its
// verdicts. A token whose verdicts meet neither device nor basic
// integrity fails with PermissionDenied.
func (v *Verifier) Verify(ctx context.Context, token string) (*Result, error) {
	if token == "" {
		return nil, apperr.New(apperr.InvalidArgument, "integrity token is required")
	}
	if v.packageName == "" {
		return nil, apperr.New(apperr.FailedPrecondition, "attestation is not configured")
	}

	body, err := json.Marshal(decodeRequest{IntegrityToken: token})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to encode decode request", err)
	}

	url := fmt.Sprintf("%s/v1/packageNames/%s:decodeIntegrityToken", v.baseURL, v.packageName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to build decode request", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "integrity decode request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.Newf(apperr.Internal, "integrity API returned status %d: %s", resp.StatusCode, msg)
	}

	var decoded decodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to decode integrity response", err)
	}

	verdicts := decoded.DeviceIntegrity.DeviceRecognitionVerdict
	appLic := decoded.AppLicensingVerdict
	if appLic == "" {
		appLic = "UNKNOWN"
	}

	passed := slices.Contains(verdicts, VerdictMeetsDevice) || slices.Contains(verdicts, VerdictMeetsBasic)
	if !passed {
		return nil, apperr.New(apperr.PermissionDenied, "device failed integrity verification")
	}

	return &Result{
		OK:                  true,
		AppLicensingVerdict: appLic,
		Verdicts:            verdicts,
	}, nil
}
