// ABOUTME: REST client for the undertone HTTP API
// ABOUTME: Uploads WAV audio for encode/decode jobs and fetches server info
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/Undertone-Audio/undertone-go/pkg/audio"
	"github.com/Undertone-Audio/undertone-go/pkg/audio/wav"
	"github.com/Undertone-Audio/undertone-go/pkg/protocol"
	"github.com/Undertone-Audio/undertone-go/pkg/stego"
)

// JobHeader is the response header carrying the job ID
const JobHeader = "X-Undertone-Job"

// RESTClient talks to the server's HTTP API. Cancellation and
// timeouts come from the caller's context.
type RESTClient struct {
	baseURL string
	httpc   *http.Client
}

// NewRESTClient creates a REST client for the given host:port
func NewRESTClient(serverAddr string) *RESTClient {
	return &RESTClient{
		baseURL: "http://" + serverAddr,
		httpc:   &http.Client{},
	}
}

// EncodeRequest asks the server to embed a message. Echo is only
// consulted for the echo technique; nil uses the server defaults.
type EncodeRequest struct {
	Carrier   *audio.Buffer
	Message   string
	Technique string
	Echo      *stego.EchoParams
}

// EncodeResult is the outcome of a server-side encode job
type EncodeResult struct {
	JobID string
	Stego *audio.Buffer
}

// DecodeRequest asks the server to extract a message. Original and
// the delays are only consulted for the echo technique; zero delays
// use the server defaults.
type DecodeRequest struct {
	Stego     *audio.Buffer
	Original  *audio.Buffer
	Technique string
	Delay0    int
	Delay1    int
}

// Info fetches the server description
func (r *RESTClient) Info(ctx context.Context) (*protocol.InfoResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/v1/info", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build info request: %w", err)
	}

	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var info protocol.InfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse info response: %w", err)
	}
	return &info, nil
}

// Encode uploads the carrier and returns the stego audio
func (r *RESTClient) Encode(ctx context.Context, encReq EncodeRequest) (*EncodeResult, error) {
	carrierData, err := wav.Encode(encReq.Carrier)
	if err != nil {
		return nil, fmt.Errorf("failed to encode carrier wav: %w", err)
	}

	fields := map[string]string{
		"message":   encReq.Message,
		"technique": encReq.Technique,
	}
	if encReq.Echo != nil {
		fields["d0"] = strconv.Itoa(encReq.Echo.Delay0)
		fields["d1"] = strconv.Itoa(encReq.Echo.Delay1)
		fields["alpha"] = strconv.FormatFloat(encReq.Echo.Alpha, 'f', -1, 64)
	}

	resp, err := r.postMultipart(ctx, "/api/v1/encode",
		map[string][]byte{"audio": carrierData}, fields)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read stego audio: %w", err)
	}
	stegoBuf, err := wav.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("server returned invalid wav: %w", err)
	}

	return &EncodeResult{
		JobID: resp.Header.Get(JobHeader),
		Stego: stegoBuf,
	}, nil
}

// Decode uploads stego audio and returns the extraction outcome
func (r *RESTClient) Decode(ctx context.Context, decReq DecodeRequest) (*protocol.DecodeResponse, error) {
	stegoData, err := wav.Encode(decReq.Stego)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stego wav: %w", err)
	}

	files := map[string][]byte{"audio": stegoData}
	if decReq.Original != nil {
		originalData, err := wav.Encode(decReq.Original)
		if err != nil {
			return nil, fmt.Errorf("failed to encode original wav: %w", err)
		}
		files["original"] = originalData
	}

	fields := map[string]string{"technique": decReq.Technique}
	if decReq.Delay0 > 0 {
		fields["d0"] = strconv.Itoa(decReq.Delay0)
	}
	if decReq.Delay1 > 0 {
		fields["d1"] = strconv.Itoa(decReq.Delay1)
	}

	resp, err := r.postMultipart(ctx, "/api/v1/decode", files, fields)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var decoded protocol.DecodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to parse decode response: %w", err)
	}
	return &decoded, nil
}

// postMultipart builds and sends a multipart form request
func (r *RESTClient) postMultipart(ctx context.Context, path string, files map[string][]byte, fields map[string]string) (*http.Response, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	for name, data := range files {
		fw, err := w.CreateFormFile(name, name+".wav")
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := fw.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write form file: %w", err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// apiError turns a non-200 response into an error, preferring the
// server's own message when it sent one
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var apiErr protocol.ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("server rejected request: %s", apiErr.Error)
	}
	return fmt.Errorf("server returned %s", resp.Status)
}
