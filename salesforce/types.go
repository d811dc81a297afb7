package salesforce

// QueryResult is one page of a SOQL query response.
type QueryResult struct {
	TotalSize      int              `json:"totalSize"`
	Done           bool             `json:"done"`
	NextRecordsURL string           `json:"nextRecordsUrl"`
	Records        []map[string]any `json:"records"`
}

// Field is the metadata of one field of a Salesforce object.
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Length   int    `json:"length"`
	Nillable bool   `json:"nillable"`
}

// ObjectDescription is the schema of one Salesforce object.
type ObjectDescription struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// tokenResponse is the OAuth2 token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
}

// apiError is one element of a Salesforce error response body.
type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}
