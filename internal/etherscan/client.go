// Package etherscan submits contract source to Etherscan-compatible explorers
// for verification.
package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	codeFormatStandardJSON = "solidity-standard-json-input"

	statusPassVerified = "Pass - Verified"
	statusPending      = "Pending in queue"
)

// Client is a minimal Etherscan v2 API client
type Client struct {
	http    *resty.Client
	apiURL  string
	apiKey  string
	chainID int64
	logger  *zap.Logger
}

// NewClient creates a new explorer client for one chain
func NewClient(apiURL, apiKey string, chainID int64, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		http:    resty.New().SetTimeout(timeout).SetHeader("Accept", "application/json"),
		apiURL:  apiURL,
		apiKey:  apiKey,
		chainID: chainID,
		logger:  logger.Named("etherscan"),
	}
}

// SubmitSource submits source for verification and returns the request GUID
func (c *Client) SubmitSource(ctx context.Context, req SourceRequest) (string, error) {
	c.logger.Info("Submitting source for verification",
		zap.String("address", req.Address.Hex()),
		zap.String("contract", req.ContractName),
		zap.String("compiler", req.CompilerVersion))

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("chainid", strconv.FormatInt(c.chainID, 10)).
		SetFormData(map[string]string{
			"apikey":          c.apiKey,
			"module":          "contract",
			"action":          "verifysourcecode",
			"contractaddress": req.Address.Hex(),
			"sourceCode":      req.SourceCode,
			"codeformat":      codeFormatStandardJSON,
			"contractname":    req.ContractName,
			"compilerversion": req.CompilerVersion,
			// sic: the API spells it this way
			"constructorArguements": req.ConstructorArgs,
		}).
		Post(c.apiURL)
	if err != nil {
		return "", fmt.Errorf("failed to send verification request: %w", err)
	}

	envelope, err := decode(resp)
	if err != nil {
		return "", err
	}

	if envelope.Status == "1" {
		c.logger.Info("Verification request accepted", zap.String("guid", envelope.Result))
		return envelope.Result, nil
	}

	return "", classify(envelope)
}

// CheckStatus returns nil once the submission identified by guid is verified
func (c *Client) CheckStatus(ctx context.Context, guid string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"chainid": strconv.FormatInt(c.chainID, 10),
			"apikey":  c.apiKey,
			"module":  "contract",
			"action":  "checkverifystatus",
			"guid":    guid,
		}).
		Get(c.apiURL)
	if err != nil {
		return fmt.Errorf("failed to query verification status: %w", err)
	}

	envelope, err := decode(resp)
	if err != nil {
		return err
	}

	c.logger.Debug("Verification status",
		zap.String("guid", guid),
		zap.String("status", envelope.Status),
		zap.String("result", envelope.Result))

	switch {
	case envelope.Result == statusPassVerified:
		return nil
	case envelope.Result == statusPending:
		return ErrPending
	case strings.HasPrefix(envelope.Result, "Fail"):
		return &RejectedError{Reason: envelope.Result}
	case envelope.Status == "1":
		return nil
	}

	err = classify(envelope)
	if errors.Is(err, ErrAlreadyVerified) {
		return nil
	}
	return err
}

func decode(resp *resty.Response) (*Response, error) {
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.IsError() {
		return nil, fmt.Errorf("explorer returned status %d: %s", resp.StatusCode(), resp.String())
	}

	var envelope Response
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode explorer response: %w", err)
	}
	return &envelope, nil
}

// classify maps an unsuccessful envelope to an error
func classify(envelope *Response) error {
	result := strings.ToLower(envelope.Result)
	switch {
	case strings.Contains(result, "already verified"):
		return ErrAlreadyVerified
	case strings.Contains(result, "unable to locate contractcode"),
		strings.Contains(result, "does not have bytecode"):
		return fmt.Errorf("%w: %s", ErrBytecodeNotIndexed, envelope.Result)
	case strings.Contains(result, "rate limit"):
		return ErrRateLimited
	}
	return &APIError{Message: envelope.Message, Result: envelope.Result}
}
