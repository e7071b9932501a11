package intake

import (
	"context"
	"time"

	"github.com/mikey/esp-analyzer/internal/core"
	"github.com/mikey/esp-analyzer/internal/headers"
	"github.com/mikey/esp-analyzer/internal/utils"
)

// processTimeout bounds the work done for a single message
const processTimeout = 10 * time.Second

// processRaw splits a raw message at the first blank line, decodes the body
// to UTF-8 and hands both parts to the analysis service.
func processRaw(
	ctx context.Context,
	service *core.AnalysisService,
	textProcessor *utils.TextProcessor,
	raw []byte,
) (*core.EmailAnalysisRecord, bool, error) {
	rawHeaders, body := headers.SplitMessage(string(raw))

	contentType, _ := headers.Parse(rawHeaders).Get(headers.ContentType)
	decoded := textProcessor.DecodeBody([]byte(body), contentType)

	return service.ProcessMessage(ctx, textProcessor.SanitizeUTF8(rawHeaders), decoded)
}
