package deploy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ridgehq/ridge/internal/shell"
	"github.com/ridgehq/ridge/internal/ssh"
)

// managementAPIPort is the loopback-only port ridged binds the
// Management API to (internal/config's APIConfig default).
const managementAPIPort = 8080

// apiClient reaches one host's loopback-only Management API by
// SSH-executing a curl command against localhost, exactly the pattern
// the teacher's CaddyClient.apiRequest uses to drive Caddy's admin API
// over the same transport — the coordinator runs on the operator's
// machine, never on the target host, so this is the only way in.
type apiClient struct {
	ssh   *ssh.Client
	token string
}

func newAPIClient(sshClient *ssh.Client, token string) *apiClient {
	return &apiClient{ssh: sshClient, token: token}
}

// request executes method/path against host's Management API, returning
// the raw response body. A non-zero curl exit code or non-2xx HTTP
// status is surfaced as a *Error of kind Transport.
func (c *apiClient) request(host, method, path string, body interface{}) ([]byte, error) {
	var bodyJSON []byte
	if body != nil {
		var err error
		bodyJSON, err = json.Marshal(body)
		if err != nil {
			return nil, wrapErr(KindConfig, host, "api-request", fmt.Errorf("marshaling request body: %w", err))
		}
	}

	curlCmd := fmt.Sprintf("curl -s -o /tmp/.ridge-api-body -w '%%{http_code}' -X %s", shell.Quote(method))
	if c.token != "" {
		curlCmd += fmt.Sprintf(" -H %s", shell.Quote("Authorization: Bearer "+c.token))
	}
	if len(bodyJSON) > 0 {
		curlCmd += " -H 'Content-Type: application/json'"
		curlCmd += fmt.Sprintf(" -d %s", shell.Quote(string(bodyJSON)))
	}
	curlCmd += fmt.Sprintf(" http://localhost:%d%s; cat /tmp/.ridge-api-body; rm -f /tmp/.ridge-api-body",
		managementAPIPort, path)

	result, err := c.ssh.Execute(host, curlCmd)
	if err != nil {
		return nil, wrapErr(KindTransport, host, "api-request", fmt.Errorf("executing management api request: %w", err))
	}
	if result.ExitCode != 0 {
		return nil, wrapErr(KindTransport, host, "api-request", fmt.Errorf("curl failed: %s", result.Stderr))
	}

	status, responseBody := splitStatusAndBody(result.Stdout)
	if status < 200 || status >= 300 {
		return nil, wrapErr(KindTransport, host, "api-request",
			fmt.Errorf("management api returned %d: %s", status, responseBody))
	}

	return []byte(responseBody), nil
}

// splitStatusAndBody separates the trailing 3-digit HTTP status code
// curl's -w flag appended from the response body that preceded it.
func splitStatusAndBody(combined string) (int, string) {
	if len(combined) < 3 {
		return 0, combined
	}
	statusStr := combined[len(combined)-3:]
	body := combined[:len(combined)-3]

	var status int
	if _, err := fmt.Sscanf(statusStr, "%d", &status); err != nil {
		return 0, combined
	}
	return status, body
}

// deployRequest mirrors api.deployRequest's wire shape exactly
// (spec.md 6's POST /api/deploy contract).
type deployRequest struct {
	Host            string        `json:"host"`
	Target          string        `json:"target"`
	Project         string        `json:"project"`
	App             string        `json:"app"`
	HealthPath      string        `json:"health_path"`
	SSL             bool          `json:"ssl"`
	SSLRedirect     bool          `json:"ssl_redirect"`
	ForwardHeaders  bool          `json:"forward_headers"`
	ResponseTimeout time.Duration `json:"response_timeout"`
}

// Deploy performs the first-deploy upsert: POST /api/deploy.
func (c *apiClient) Deploy(host string, req deployRequest) error {
	_, err := c.request(host, http.MethodPost, "/api/deploy", req)
	return err
}

// Switch performs the atomic traffic switch for subsequent deploys:
// PATCH /api/hosts/:host {target}.
func (c *apiClient) Switch(host, hostname, target string) error {
	_, err := c.request(host, http.MethodPatch, "/api/hosts/"+hostname, map[string]string{"target": target})
	return err
}

// hostEntry mirrors statestore.RoutingEntry's wire shape for GET
// /api/hosts, trimmed to the fields the coordinator reads.
type hostEntry struct {
	Project  string `json:"project"`
	App      string `json:"app"`
	Hostname string `json:"hostname"`
	Target   string `json:"target"`
	Healthy  bool   `json:"healthy"`
}

// ListHosts returns every routing entry tracked on host: GET /api/hosts.
func (c *apiClient) ListHosts(host string) ([]hostEntry, error) {
	data, err := c.request(host, http.MethodGet, "/api/hosts", nil)
	if err != nil {
		return nil, err
	}
	var entries []hostEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, wrapErr(KindTransport, host, "api-request", fmt.Errorf("decoding hosts response: %w", err))
	}
	return entries, nil
}

// requestTimeout is a 30-second bound for a single Management API
// request. No code reads it, so it is not applied to any request.
const requestTimeout = 30 * time.Second
