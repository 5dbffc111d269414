package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"healthfirst/pkg/model"
)

// AvailabilityClient calls the availability service HTTP API. Used by sibling
// services and integration tooling.
type AvailabilityClient struct {
	httpClient *HttpClient
}

func NewAvailabilityClient(baseURL string) *AvailabilityClient {
	return &AvailabilityClient{
		httpClient: NewHttpClient(baseURL),
	}
}

func (c *AvailabilityClient) Create(providerID string, body any) (*Response, error) {
	path := "/api/v1/provider/" + url.PathEscape(providerID) + "/availability"
	return c.httpClient.POST(path, body)
}

func (c *AvailabilityClient) CreateRecurring(providerID string, body any) (*Response, error) {
	path := "/api/v1/provider/" + url.PathEscape(providerID) + "/availability/recurring"
	return c.httpClient.POST(path, body)
}

func (c *AvailabilityClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/availability/id/" + url.PathEscape(id))
}

func (c *AvailabilityClient) GetByProvider(providerID string, startDate, endDate, status string) (*Response, error) {
	q := url.Values{}
	if startDate != "" {
		q.Set("start_date", startDate)
	}
	if endDate != "" {
		q.Set("end_date", endDate)
	}
	if status != "" {
		q.Set("status", status)
	}

	path := "/api/v1/provider/" + url.PathEscape(providerID) + "/availability"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return c.httpClient.GET(path)
}

func (c *AvailabilityClient) Search(criteria url.Values) (*Response, error) {
	return c.httpClient.GET("/api/v1/availability/search?" + criteria.Encode())
}

func (c *AvailabilityClient) SearchBySpecialization(specialization string, startDate, endDate string) (*Response, error) {
	path := "/api/v1/availability/search/specialization/" + url.PathEscape(specialization)
	if q := dateRangeQuery(startDate, endDate); q != "" {
		path += "?" + q
	}
	return c.httpClient.GET(path)
}

func (c *AvailabilityClient) SearchByAppointmentType(appointmentType string, startDate, endDate string) (*Response, error) {
	path := "/api/v1/availability/search/type/" + url.PathEscape(appointmentType)
	if q := dateRangeQuery(startDate, endDate); q != "" {
		path += "?" + q
	}
	return c.httpClient.GET(path)
}

func dateRangeQuery(startDate, endDate string) string {
	q := url.Values{}
	if startDate != "" {
		q.Set("start_date", startDate)
	}
	if endDate != "" {
		q.Set("end_date", endDate)
	}
	return q.Encode()
}

func (c *AvailabilityClient) Update(id string, body any) (*Response, error) {
	return c.httpClient.PUT("/api/v1/availability/id/"+url.PathEscape(id), body)
}

func (c *AvailabilityClient) Delete(id string) (*Response, error) {
	return c.httpClient.DELETE("/api/v1/availability/id/" + url.PathEscape(id))
}

func (c *AvailabilityClient) DeleteRecurring(id string) (*Response, error) {
	return c.httpClient.DELETE("/api/v1/availability/id/" + url.PathEscape(id) + "/recurring")
}

func (c *AvailabilityClient) RegisterAppointment(id string) (*Response, error) {
	return c.httpClient.POST("/api/v1/availability/id/"+url.PathEscape(id)+"/appointments", nil)
}

func (c *AvailabilityClient) ReleaseAppointment(id string) (*Response, error) {
	return c.httpClient.DELETE("/api/v1/availability/id/" + url.PathEscape(id) + "/appointments")
}

func (c *AvailabilityClient) DecodeAvailability(resp *Response) (*model.AvailabilityResponse, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode availability wrapper:\n%s\n%w", resp.ToString(), err)
	}

	var availability model.AvailabilityResponse
	if err := json.Unmarshal(wrapper.Data, &availability); err != nil {
		return nil, fmt.Errorf("could not decode availability json:\n%s\n%w", resp.ToString(), err)
	}

	return &availability, nil
}

func (c *AvailabilityClient) DecodeAvailabilities(resp *Response) ([]*model.AvailabilityResponse, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode availability list wrapper:\n%s\n%w", resp.ToString(), err)
	}

	var availabilities []*model.AvailabilityResponse
	if err := json.Unmarshal(wrapper.Data, &availabilities); err != nil {
		return nil, fmt.Errorf("could not decode availability list json:\n%s\n%w", resp.ToString(), err)
	}

	return availabilities, nil
}
