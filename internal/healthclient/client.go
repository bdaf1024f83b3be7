// Пакет healthclient — HTTP-клиент внешнего health endpoint системы.
// Ответ GET <url>: {"status": "healthy|starting|warning|critical"}.
// Поддерживает TLS с кастомным CA (CV_HEALTH_CA_CERT).
package healthclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bigkaa/goartstore/converter/internal/domain/throttle"
)

// maxErrorBody — сколько байт тела ответа включать в сообщение об ошибке.
const maxErrorBody = 512

// HealthResponse — ответ health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// Client — клиент health endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент.
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
func New(url string, timeout time.Duration, caCertPath string, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата health endpoint: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат health endpoint добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		url:        url,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "health_client")),
	}, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("файл %s не содержит PEM-сертификатов", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// URL возвращает адрес health endpoint.
func (c *Client) URL() string {
	return c.url
}

// Status запрашивает текущий уровень состояния системы.
// Ответ с кодом, отличным от 200, считается ошибкой проверки.
func (c *Client) Status(ctx context.Context) (throttle.Severity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("создание запроса health: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("запрос health к %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("health endpoint %s вернул статус %d: %s", c.url, resp.StatusCode, string(body))
	}

	var hr HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return "", fmt.Errorf("декодирование ответа health от %s: %w", c.url, err)
	}

	c.logger.Debug("Получен статус системы", slog.String("status", hr.Status))
	return throttle.Severity(hr.Status), nil
}
