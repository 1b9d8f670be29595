package output

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/willibrandon/pgread/internal/db/models"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter prints each record as a flow-style sequence item, so the
// concatenated output is one valid YAML document: "- {id: 1, name: Alice, age: 30}".
type YAMLFormatter struct{}

func (YAMLFormatter) WriteRecord(w io.Writer, u models.UserRecord) error {
	age := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	if u.HasAge() {
		age = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(*u.Age, 10)}
	}

	item := &yaml.Node{
		Kind:  yaml.MappingNode,
		Style: yaml.FlowStyle,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "id"},
			{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(u.ID, 10)},
			{Kind: yaml.ScalarNode, Value: "name"},
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: u.Name},
			{Kind: yaml.ScalarNode, Value: "age"},
			age,
		},
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{item}}

	data, err := yaml.Marshal(seq)
	if err != nil {
		return errors.Join(ErrWriteFailed, fmt.Errorf("encode user %d: %w", u.ID, err))
	}
	return writeLine(w, strings.TrimRight(string(data), "\n"))
}

func (YAMLFormatter) Flush(io.Writer) error { return nil }
