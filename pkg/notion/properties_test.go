package notion

import (
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
)

func TestRichText(t *testing.T) {
	assert.Equal(t, "hello", RichText(notionapi.RichTextProperty{RichText: Text("hello")}))
	assert.Equal(t, "42", RichText(LeadID("42")))
	assert.Equal(t, "", RichText(&notionapi.URLProperty{URL: "https://x.example"}))
	assert.Equal(t, "", RichText(nil))
}
