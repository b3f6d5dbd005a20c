package mail

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildBodyMultipart(t *testing.T) {
	body, contentType := buildBody(Message{
		TextBody: "plain part",
		HTMLBody: "<p>html part</p>",
	})

	require.Contains(t, contentType, "multipart/alternative; boundary=authcore-boundary-")
	require.Contains(t, body, "plain part")
	require.Contains(t, body, "<p>html part</p>")
	require.NotContains(t, body, "gobite")
}

func TestBuildBodySinglePart(t *testing.T) {
	body, contentType := buildBody(Message{HTMLBody: "<p>only html</p>"})
	require.Equal(t, "text/html; charset=UTF-8", contentType)
	require.Equal(t, "<p>only html</p>", body)

	body, contentType = buildBody(Message{TextBody: "only text"})
	require.Equal(t, "text/plain; charset=UTF-8", contentType)
	require.Equal(t, "only text", body)
}
