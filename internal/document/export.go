package document

import (
	"strings"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// JSON returns the visible entities as a JSON array of
// {"id", "kind", "parent", "attrs"} objects. parent is omitted for
// entities that replace nothing.
func (d *Document) JSON() (string, error) {
	visible := d.Visible()
	items := make([]string, 0, len(visible))
	for _, e := range visible {
		obj, err := sjson.Set("{}", "id", e.id)
		if err != nil {
			return "", err
		}
		if obj, err = sjson.Set(obj, "kind", e.kind); err != nil {
			return "", err
		}
		if e.parent != 0 {
			if obj, err = sjson.Set(obj, "parent", e.parent); err != nil {
				return "", err
			}
		}
		if obj, err = sjson.SetRaw(obj, "attrs", e.attrs); err != nil {
			return "", err
		}
		items = append(items, obj)
	}
	return "[" + strings.Join(items, ",") + "]", nil
}

// PrettyJSON returns JSON indented for display.
func (d *Document) PrettyJSON() (string, error) {
	raw, err := d.JSON()
	if err != nil {
		return "", err
	}
	return string(pretty.Pretty([]byte(raw))), nil
}
