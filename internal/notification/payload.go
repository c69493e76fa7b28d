package notification

import "time"

const (
	launchDateLayout = "01/02/2006, 15:04"
	footerTimeLayout = "01/02/2006, 15:04:05"

	thumbnailHeight = 300
	thumbnailWidth  = 270
)

type Payload struct {
	Embeds []Embed `json:"embeds"`
}

type Embed struct {
	Color     int        `json:"color"`
	Title     string     `json:"title"`
	URL       string     `json:"url,omitempty"`
	Thumbnail *Thumbnail `json:"thumbnail,omitempty"`
	Footer    Footer     `json:"footer"`
	Fields    []Field    `json:"fields"`
}

type Thumbnail struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type Footer struct {
	Text string `json:"text"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Fields are the resolved values of one notification. Empty strings and nil
// pointers are left out of the payload.
type Fields struct {
	Color       int
	Title       string
	URL         string
	ImageURL    string
	SKU         string
	SellDate    *time.Time
	PublishType string
	Price       string
	Sizes       string
}

// Build assembles the payload for f. now stamps the footer.
func Build(f Fields, footerPrefix string, now time.Time) Payload {
	embed := Embed{
		Color:  f.Color,
		Title:  f.Title,
		URL:    f.URL,
		Footer: Footer{Text: footerPrefix + " | " + now.Format(footerTimeLayout)},
		Fields: []Field{},
	}
	if f.ImageURL != "" {
		embed.Thumbnail = &Thumbnail{URL: f.ImageURL, Height: thumbnailHeight, Width: thumbnailWidth}
	}

	addField := func(name, value string) {
		if value != "" {
			embed.Fields = append(embed.Fields, Field{Name: name, Value: value, Inline: true})
		}
	}
	addField("SKU", f.SKU)
	if f.SellDate != nil {
		addField("Launch Date", f.SellDate.Format(launchDateLayout))
	}
	addField("Publish Type", f.PublishType)
	addField("Price", f.Price)
	addField("Sizes", f.Sizes)

	return Payload{Embeds: []Embed{embed}}
}
