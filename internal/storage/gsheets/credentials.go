package gsheets

import (
	"encoding/json"
	"errors"
)

// Credentials are the service-account fields needed to talk to the
// Sheets API.
type Credentials struct {
	ProjectID    string
	PrivateKeyID string
	PrivateKey   string
	ClientEmail  string
	ClientID     string
}

const tokenURI = "https://oauth2.googleapis.com/token"

// JSON renders the credentials as a service-account key file.
func (c Credentials) JSON() ([]byte, error) {
	if c.ClientEmail == "" || c.PrivateKey == "" {
		return nil, errors.New("service account requires client email and private key")
	}
	return json.Marshal(struct {
		Type         string `json:"type"`
		ProjectID    string `json:"project_id"`
		PrivateKeyID string `json:"private_key_id,omitempty"`
		PrivateKey   string `json:"private_key"`
		ClientEmail  string `json:"client_email"`
		ClientID     string `json:"client_id,omitempty"`
		AuthURI      string `json:"auth_uri"`
		TokenURI     string `json:"token_uri"`
	}{
		Type:         "service_account",
		ProjectID:    c.ProjectID,
		PrivateKeyID: c.PrivateKeyID,
		PrivateKey:   c.PrivateKey,
		ClientEmail:  c.ClientEmail,
		ClientID:     c.ClientID,
		AuthURI:      "https://accounts.google.com/o/oauth2/auth",
		TokenURI:     tokenURI,
	})
}
