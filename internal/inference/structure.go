package inference

import (
	"context"

	"github.com/harper/sam/internal/models"
)

// Structure turns raw text into a record. It never fails: any service or
// parse error produces a fallback record carrying the error.
func (c *Client) Structure(ctx context.Context, text string) *models.Record {
	now := c.now()
	if !c.Configured() {
		return Fallback(text, ErrNotConfigured, now)
	}

	raw, err := c.generate(ctx, structureRequest(text, now))
	if err != nil {
		c.log.Warn("structuring failed, using local fallback", "err", err)
		return Fallback(text, err, now)
	}

	payload, err := parseStructure(raw)
	if err != nil {
		c.log.Warn("structuring response rejected, using local fallback", "err", err)
		return Fallback(text, err, now)
	}
	return payload.toRecord(now)
}
