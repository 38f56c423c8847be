package contentful

// Wire types of the Contentful Delivery, Preview and Management APIs.

type link struct {
	Sys struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		LinkType string `json:"linkType,omitempty"`
	} `json:"sys"`
}

type sys struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	Locale      string `json:"locale"`
	ContentType *link  `json:"contentType,omitempty"`
	Space       *link  `json:"space,omitempty"`
	Environment *link  `json:"environment,omitempty"`
}

type item struct {
	Sys    sys            `json:"sys"`
	Fields map[string]any `json:"fields"`
}

type collection struct {
	Total int    `json:"total"`
	Skip  int    `json:"skip"`
	Limit int    `json:"limit"`
	Items []item `json:"items"`
}

type syncPage struct {
	Items       []item `json:"items"`
	NextPageURL string `json:"nextPageUrl"`
	NextSyncURL string `json:"nextSyncUrl"`
}

type apiKey struct {
	Sys           sys    `json:"sys"`
	Name          string `json:"name"`
	AccessToken   string `json:"accessToken"`
	PreviewAPIKey *link  `json:"preview_api_key,omitempty"`
}

type apiKeyList struct {
	Items []apiKey `json:"items"`
}

type previewAPIKey struct {
	AccessToken string `json:"accessToken"`
}
