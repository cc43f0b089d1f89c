package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	t.Run("template with base layout", func(t *testing.T) {
		msg := EmailMessage{
			To:           AddressList("dean@cutm.ac.in"),
			Subject:      "Records cleared",
			TemplateName: "records_cleared",
			TemplateData: map[string]interface{}{
				"AppName":   "Results",
				"Count":     3,
				"ClearedBy": "shubham@cutm.ac.in",
				"ClearedAt": time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC),
			},
		}
		require.NoError(t, msg.Render())
		assert.True(t, msg.HasContent())
		assert.Contains(t, msg.TextContent, "Hello,")
		assert.Contains(t, msg.TextContent, "All 3 student result record(s) were cleared from Results by shubham@cutm.ac.in")
		assert.Contains(t, msg.TextContent, "Results | Directorate of Evaluation")
	})

	t.Run("missing data key", func(t *testing.T) {
		msg := EmailMessage{TemplateName: "records_cleared", TemplateData: map[string]interface{}{}}
		assert.Error(t, msg.Render())
		assert.False(t, msg.HasContent())
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := EmailMessage{TemplateName: "nope"}
		assert.Error(t, msg.Render())
	})

	t.Run("plain body", func(t *testing.T) {
		msg := EmailMessage{BodyStr: "hi"}
		require.NoError(t, msg.Render())
		assert.Equal(t, "hi", msg.TextContent)
	})
}
