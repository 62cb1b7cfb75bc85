package session

import "encoding/json"

// StripThinking removes thinking content blocks from an assistant record
// and returns the re-serialized line. Records that carry no thinking
// blocks come back exactly as stored in Raw, so only lines that actually
// change are rewritten.
func (r Record) StripThinking() (line json.RawMessage, stripped bool) {
	if r.Type != "assistant" {
		return r.Raw, false
	}

	var full map[string]interface{}
	if err := json.Unmarshal(r.Raw, &full); err != nil {
		return r.Raw, false
	}

	message, ok := full["message"].(map[string]interface{})
	if !ok {
		return r.Raw, false
	}
	content, ok := message["content"].([]interface{})
	if !ok {
		return r.Raw, false
	}

	kept := make([]interface{}, 0, len(content))
	removed := false
	for _, item := range content {
		if block, ok := item.(map[string]interface{}); ok {
			if blockType, _ := block["type"].(string); blockType == "thinking" {
				removed = true
				continue
			}
		}
		kept = append(kept, item)
	}
	if !removed {
		return r.Raw, false
	}

	message["content"] = kept
	out, err := json.Marshal(full)
	if err != nil {
		return r.Raw, false
	}
	return out, true
}
