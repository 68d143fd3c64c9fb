package crud

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Draft is the edit buffer of an open modal. It is discarded when the modal closes.
type Draft struct {
	Mode     Mode                   `json:"mode"`
	TargetID int64                  `json:"target_id,omitempty"`
	Fields   map[string]interface{} `json:"fields"`
	Errors   map[string]string      `json:"errors,omitempty"`
	Message  string                 `json:"message,omitempty"`
}

func newDraft(mode Mode, target int64, fields map[string]interface{}) *Draft {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	return &Draft{Mode: mode, TargetID: target, Fields: fields}
}

func (d *Draft) clone() *Draft {
	if d == nil {
		return nil
	}
	out := &Draft{Mode: d.Mode, TargetID: d.TargetID, Message: d.Message}
	out.Fields = make(map[string]interface{}, len(d.Fields))
	for k, v := range d.Fields {
		out.Fields[k] = v
	}
	if len(d.Errors) > 0 {
		out.Errors = make(map[string]string, len(d.Errors))
		for k, v := range d.Errors {
			out.Errors[k] = v
		}
	}
	return out
}
