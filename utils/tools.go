package utils

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"
)

var insecureHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	},
}

// InsecureHTTPClient returns an HTTP client that skips TLS verification.
// Modem diagnostic pages sit behind self-signed certificates.
func InsecureHTTPClient() *http.Client {
	return insecureHTTPClient
}

func SimpleHTTPFetch(url string) ([]byte, int64, error) {
	timeStart := time.Now().UnixMilli()
	resp, err := insecureHTTPClient.Get(url)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, 0, fmt.Errorf("%d status code recieved", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	fetchTime := time.Now().UnixMilli() - timeStart
	return body, fetchTime, nil
}

// GabsString returns the value at path as a plain string, without the JSON
// quoting and regardless of whether the modem sent it as a string or a
// number. Missing paths yield "".
func GabsString(input *gabs.Container, path string) string {
	v := input.Path(path)
	if v == nil {
		return ""
	}
	return strings.Trim(v.String(), "\"")
}

func Getenv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

type HttpResult struct {
	Index int
	Body  []byte
	Err   error
}

// BoundedParallelGet fetches every URL concurrently, at most
// concurrencyLimit requests in flight, and returns one result per URL in
// completion order.
func BoundedParallelGet(urls []string, concurrencyLimit int) []HttpResult {
	semaphoreChan := make(chan struct{}, concurrencyLimit)
	resultsChan := make(chan HttpResult, len(urls))

	for i, url := range urls {
		go func(i int, url string) {
			semaphoreChan <- struct{}{}
			defer func() { <-semaphoreChan }()

			res, err := insecureHTTPClient.Get(url)
			if err != nil {
				resultsChan <- HttpResult{Index: i, Err: err}
				return
			}
			defer res.Body.Close()
			if res.StatusCode != 200 {
				resultsChan <- HttpResult{Index: i, Err: fmt.Errorf("%d status code recieved", res.StatusCode)}
				return
			}
			body, err := io.ReadAll(res.Body)
			resultsChan <- HttpResult{Index: i, Body: body, Err: err}
		}(i, url)
	}

	results := make([]HttpResult, 0, len(urls))
	for range urls {
		results = append(results, <-resultsChan)
	}
	close(semaphoreChan)
	close(resultsChan)

	return results
}
