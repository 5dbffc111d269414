package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"healthfirst/pkg/model"
)

type ProviderClient struct {
	httpClient *HttpClient
}

func NewProviderClient(baseURL string) *ProviderClient {
	return &ProviderClient{
		httpClient: NewHttpClient(baseURL),
	}
}

func (c *ProviderClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/providers/id/" + url.PathEscape(id))
}

func (c *ProviderClient) GetByUserID(userID string) (*Response, error) {
	return c.httpClient.GET("/api/v1/providers/user/" + url.PathEscape(userID))
}

func (c *ProviderClient) GetBySpecialization(specialization string) (*Response, error) {
	return c.httpClient.GET("/api/v1/providers/specialization/" + url.PathEscape(specialization))
}

func (c *ProviderClient) DecodeProvider(resp *Response) (*model.Provider, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode provider wrapper:\n%s\n%w", resp.ToString(), err)
	}

	var provider model.Provider
	if err := json.Unmarshal(wrapper.Data, &provider); err != nil {
		return nil, fmt.Errorf("could not decode provider json:\n%s\n%w", resp.ToString(), err)
	}

	return &provider, nil
}

func (c *ProviderClient) DecodeProviders(resp *Response) ([]*model.Provider, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode provider list wrapper:\n%s\n%w", resp.ToString(), err)
	}

	var providers []*model.Provider
	if err := json.Unmarshal(wrapper.Data, &providers); err != nil {
		return nil, fmt.Errorf("could not decode provider list json:\n%s\n%w", resp.ToString(), err)
	}

	return providers, nil
}
