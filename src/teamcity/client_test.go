package teamcity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"baobab/src/provider"
)

func TestParseBuildURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantAPIURL string
		wantID     uint64
		wantErr    error
	}{
		{
			name:       "viewLog URL",
			url:        "https://teamcity.example.com/viewLog.html?buildId=4091&buildTypeId=Proj_Build",
			wantAPIURL: "https://teamcity.example.com",
			wantID:     4091,
		},
		{
			name:       "path and fragment are dropped",
			url:        "http://tc.local/buildConfiguration/Proj_Build/77?buildId=77#tab",
			wantAPIURL: "http://tc.local",
			wantID:     77,
		},
		{
			name:       "port is kept",
			url:        "https://tc.local:8111/viewLog.html?buildId=0",
			wantAPIURL: "https://tc.local:8111",
			wantID:     0,
		},
		{
			name:       "first buildId wins",
			url:        "https://tc.local/viewLog.html?buildId=5&buildId=6",
			wantAPIURL: "https://tc.local",
			wantID:     5,
		},
		{
			name:    "missing buildId",
			url:     "https://tc.local/viewLog.html?buildTypeId=Proj_Build",
			wantErr: provider.ErrMissingParameter,
		},
		{
			name:    "non-numeric buildId",
			url:     "https://tc.local/viewLog.html?buildId=abc",
			wantErr: provider.ErrInvalidParameter,
		},
		{
			name:    "negative buildId",
			url:     "https://tc.local/viewLog.html?buildId=-1",
			wantErr: provider.ErrInvalidParameter,
		},
		{
			name:    "no scheme",
			url:     "tc.local/viewLog.html?buildId=1",
			wantErr: provider.ErrInvalidURL,
		},
		{
			name:    "unparseable",
			url:     "https://tc.local/%zz?buildId=1",
			wantErr: provider.ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseBuildURL(tt.url)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseBuildURL() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseBuildURL() unexpected error: %v", err)
			}
			if req.APIURL != tt.wantAPIURL {
				t.Errorf("APIURL = %q, want %q", req.APIURL, tt.wantAPIURL)
			}
			if req.BuildID != tt.wantID {
				t.Errorf("BuildID = %d, want %d", req.BuildID, tt.wantID)
			}
		})
	}
}

func TestClient_GetBuild_Running(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/app/rest/builds/id:123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("unexpected Accept header: %s", r.Header.Get("Accept"))
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "secret" {
			t.Errorf("unexpected basic auth: %q %q %v", user, pass, ok)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 123,
			"status": "SUCCESS",
			"state": "running",
			"percentageComplete": 42,
			"webUrl": "https://tc/viewLog.html?buildId=123",
			"running-info": {
				"elapsedSeconds": 30,
				"estimatedTotalSeconds": 90,
				"currentStageText": "Step 2/5: compile"
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, Credentials{Username: "alice", Password: "secret"}, nil, nil)

	build, err := client.GetBuild(context.Background(), 123)
	if err != nil {
		t.Fatalf("GetBuild() error = %v", err)
	}

	if build.Status != StatusSuccess {
		t.Errorf("Status = %s, want SUCCESS", build.Status)
	}
	if build.State != StateRunning {
		t.Errorf("State = %s, want running", build.State)
	}
	if build.PercentageComplete == nil || *build.PercentageComplete != 42 {
		t.Errorf("PercentageComplete = %v, want 42", build.PercentageComplete)
	}
	if build.RunningInfo == nil {
		t.Fatal("RunningInfo is nil")
	}
	if build.RunningInfo.CurrentStageText != "Step 2/5: compile" {
		t.Errorf("CurrentStageText = %q", build.RunningInfo.CurrentStageText)
	}
	if build.RunningInfo.EstimatedTotalSeconds != 90 {
		t.Errorf("EstimatedTotalSeconds = %d, want 90", build.RunningInfo.EstimatedTotalSeconds)
	}
	if build.Finished() {
		t.Error("running build reported as finished")
	}
}

func TestClient_GetBuild_OptionalFieldsAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "FAILURE", "state": "finished", "webUrl": "https://tc/1"}`))
	}))
	defer server.Close()

	build, err := NewClient(server.URL, Credentials{}, nil, nil).GetBuild(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetBuild() error = %v", err)
	}

	if build.PercentageComplete != nil {
		t.Errorf("PercentageComplete = %v, want nil", *build.PercentageComplete)
	}
	if build.RunningInfo != nil {
		t.Errorf("RunningInfo = %+v, want nil", build.RunningInfo)
	}
	if !build.Finished() {
		t.Error("finished build not reported as finished")
	}
}

func TestClient_GetBuild_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		check     func(t *testing.T, err error)
		transient bool
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   "Authentication required",
			check: func(t *testing.T, err error) {
				var respErr *provider.ResponseError
				if !errors.As(err, &respErr) {
					t.Fatalf("error = %T, want *provider.ResponseError", err)
				}
				if respErr.StatusCode != 401 || respErr.Body != "Authentication required" {
					t.Errorf("ResponseError = %+v", respErr)
				}
				if !errors.Is(err, provider.ErrAuthFailed) {
					t.Errorf("401 should match ErrAuthFailed, got %v", err)
				}
			},
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, provider.ErrAuthFailed) {
					t.Errorf("403 should match ErrAuthFailed, got %v", err)
				}
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   "No build found by locator",
			check: func(t *testing.T, err error) {
				var respErr *provider.ResponseError
				if !errors.As(err, &respErr) || respErr.StatusCode != 404 {
					t.Fatalf("error = %v, want 404 ResponseError", err)
				}
				if !errors.Is(err, provider.ErrBuildNotFound) {
					t.Errorf("404 should match ErrBuildNotFound, got %v", err)
				}
			},
		},
		{
			name:      "server error",
			status:    http.StatusBadGateway,
			body:      "upstream down",
			transient: true,
			check: func(t *testing.T, err error) {
				var respErr *provider.ResponseError
				if !errors.As(err, &respErr) || respErr.StatusCode != 502 {
					t.Fatalf("error = %v, want 502 ResponseError", err)
				}
				if errors.Is(err, provider.ErrAuthFailed) || errors.Is(err, provider.ErrBuildNotFound) {
					t.Errorf("502 should not match a sentinel, got %v", err)
				}
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"status": `,
			check: func(t *testing.T, err error) {
				var decErr *provider.DecodeError
				if !errors.As(err, &decErr) {
					t.Fatalf("error = %T, want *provider.DecodeError", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, Credentials{}, nil, nil).GetBuild(context.Background(), 9)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			tt.check(t, err)
			if got := provider.IsTransient(err); got != tt.transient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.transient)
			}
		})
	}
}

func TestClient_GetBuild_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, Credentials{}, nil, nil).GetBuild(context.Background(), 1)

	var reqErr *provider.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *provider.RequestError", err)
	}
	if !provider.IsTransient(err) {
		t.Error("transport error should be transient")
	}
}

func TestClient_GetBuild_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, Credentials{}, &http.Client{Timeout: 50 * time.Millisecond}, nil)

	start := time.Now()
	_, err := client.GetBuild(context.Background(), 1)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("request was not bounded by the client timeout")
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("https://tc", Credentials{Username: "u"}, nil, nil)

	if client.httpClient == nil || client.httpClient.Timeout != DefaultTimeout {
		t.Errorf("default http client not configured: %+v", client.httpClient)
	}
	if got := client.BuildURL(7); got != "https://tc/app/rest/builds/id:7" {
		t.Errorf("BuildURL() = %s", got)
	}
}
