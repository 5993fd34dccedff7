package vertexrag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	pkgerrors "github.com/clauselens/clauselens-backend/internal/pkg/errors"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// RetrievedContext is one snippet returned by corpus retrieval.
type RetrievedContext struct {
	Text      string
	SourceURI string
	Score     float64
}

// Client wraps the managed retrieval corpus. Two operations only: register
// a raw file for later retrieval, and fetch the snippets relevant to a
// query. Everything else about the corpus is the service's business.
type Client interface {
	// UploadFile registers a local file with the corpus. Metadata keys
	// (user_id, doc_id) scope later retrieval. Returns the opaque rag-file
	// name assigned by the service.
	UploadFile(ctx context.Context, localPath, displayName string, metadata map[string]string) (string, error)

	// RetrieveContexts runs a scoped similarity retrieval against the corpus.
	RetrieveContexts(ctx context.Context, query string, metadata map[string]string, topK int, vectorDistanceThreshold float64) ([]RetrievedContext, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	projectID  string
	location   string
	corpusID   string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	projectID := strings.TrimSpace(os.Getenv("GCP_PROJECT"))
	if projectID == "" {
		return nil, fmt.Errorf("missing GCP_PROJECT")
	}
	location := strings.TrimSpace(os.Getenv("GCP_REGION"))
	if location == "" {
		location = "us-central1"
	}
	corpusID := strings.TrimSpace(os.Getenv("RAG_CORPUS_ID"))
	if corpusID == "" {
		return nil, fmt.Errorf("missing RAG_CORPUS_ID")
	}

	baseURL := strings.TrimSpace(os.Getenv("VERTEX_RAG_BASE_URL"))
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com", location)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient, err := authenticatedClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("vertex rag credentials: %w", err)
	}
	httpClient.Timeout = 3 * time.Minute

	return &client{
		log:        log.With("service", "VertexRagClient"),
		baseURL:    baseURL,
		projectID:  projectID,
		location:   location,
		corpusID:   corpusID,
		httpClient: httpClient,
	}, nil
}

func authenticatedClient(ctx context.Context) (*http.Client, error) {
	if raw := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); raw != "" {
		creds, err := google.CredentialsFromJSON(ctx, []byte(raw), cloudPlatformScope)
		if err != nil {
			return nil, err
		}
		return oauth2.NewClient(ctx, creds.TokenSource), nil
	}
	ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

func (c *client) corpusName() string {
	return fmt.Sprintf("projects/%s/locations/%s/ragCorpora/%s", c.projectID, c.location, c.corpusID)
}

func (c *client) parentName() string {
	return fmt.Sprintf("projects/%s/locations/%s", c.projectID, c.location)
}

type uploadRagFileResponse struct {
	RagFile struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"ragFile"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *client) UploadFile(ctx context.Context, localPath, displayName string, metadata map[string]string) (string, error) {
	if displayName == "" {
		displayName = filepath.Base(localPath)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", pkgerrors.ErrIngestionFailure, localPath, err)
	}
	defer f.Close()

	desc, _ := json.Marshal(metadata)
	meta := map[string]any{
		"rag_file": map[string]any{
			"display_name": displayName,
			"description":  string(desc),
		},
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	metaPart, err := mw.CreateFormField("metadata")
	if err != nil {
		return "", err
	}
	if _, err := metaPart.Write(metaJSON); err != nil {
		return "", err
	}

	filePart, err := mw.CreateFormFile("file", displayName)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(filePart, f); err != nil {
		return "", fmt.Errorf("%w: read %s: %v", pkgerrors.ErrIngestionFailure, localPath, err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/upload/v1beta1/%s/ragFiles:upload", c.baseURL, c.corpusName())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Goog-Upload-Protocol", "multipart")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", pkgerrors.ErrIngestionFailure, err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", fmt.Errorf("%w: read response: %v", pkgerrors.ErrIngestionFailure, readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: http %d: %s", pkgerrors.ErrIngestionFailure, resp.StatusCode, string(raw))
	}

	var parsed uploadRagFileResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", pkgerrors.ErrIngestionFailure, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", pkgerrors.ErrIngestionFailure, parsed.Error.Message)
	}

	c.log.Info("Uploaded file to RAG corpus",
		"display_name", displayName,
		"rag_file", parsed.RagFile.Name,
	)
	return parsed.RagFile.Name, nil
}

type retrieveContextsRequest struct {
	VertexRagStore struct {
		RagResources []struct {
			RagCorpus string `json:"ragCorpus"`
		} `json:"ragResources"`
		VectorDistanceThreshold float64 `json:"vectorDistanceThreshold,omitempty"`
	} `json:"vertexRagStore"`
	Query struct {
		Text            string            `json:"text"`
		SimilarityTopK  int               `json:"similarityTopK,omitempty"`
		MetadataFilters map[string]string `json:"metadataFilters,omitempty"`
	} `json:"query"`
}

type retrieveContextsResponse struct {
	Contexts struct {
		Contexts []struct {
			Text      string  `json:"text"`
			SourceURI string  `json:"sourceUri"`
			Score     float64 `json:"score"`
		} `json:"contexts"`
	} `json:"contexts"`
}

func (c *client) RetrieveContexts(ctx context.Context, query string, metadata map[string]string, topK int, vectorDistanceThreshold float64) ([]RetrievedContext, error) {
	var req retrieveContextsRequest
	req.VertexRagStore.RagResources = []struct {
		RagCorpus string `json:"ragCorpus"`
	}{{RagCorpus: c.corpusName()}}
	req.VertexRagStore.VectorDistanceThreshold = vectorDistanceThreshold
	req.Query.Text = query
	req.Query.SimilarityTopK = topK
	req.Query.MetadataFilters = metadata

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta1/%s:retrieveContexts", c.baseURL, c.parentName())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("retrieve contexts: %w", err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("retrieve contexts read: %w", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("retrieve contexts http %d: %s", resp.StatusCode, string(raw))
	}

	var parsed retrieveContextsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("retrieve contexts decode: %w", err)
	}

	out := make([]RetrievedContext, 0, len(parsed.Contexts.Contexts))
	for _, rc := range parsed.Contexts.Contexts {
		if strings.TrimSpace(rc.Text) == "" {
			continue
		}
		out = append(out, RetrievedContext{Text: rc.Text, SourceURI: rc.SourceURI, Score: rc.Score})
	}
	return out, nil
}
