package llm

import (
	"context"
	"strings"
)

// dialogueTokens caps a spoken NPC reply.
const dialogueTokens = 200

// Generate produces one NPC line from a dialogue briefing. It satisfies
// npc.DialogueGenerator; a nil or unconfigured client reports ErrDisabled.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	reply, err := c.Complete(ctx, system, user, dialogueTokens)
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(reply), `"`), nil
}
