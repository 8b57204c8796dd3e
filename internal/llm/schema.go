package llm

import (
	"sort"

	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/genai"
)

type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeString  SchemaType = "string"
	TypeArray   SchemaType = "array"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
)

// Schema es un subconjunto de JSON Schema común a ambos proveedores.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]Schema
	Items       *Schema
	Required    []string
}

func (s Schema) propertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// openAIDefinition convierte el schema. En modo strict OpenAI exige que todas
// las propiedades estén en required y additionalProperties=false.
func (s Schema) openAIDefinition(strict bool) jsonschema.Definition {
	def := jsonschema.Definition{
		Type:        jsonschema.DataType(s.Type),
		Description: s.Description,
		Required:    s.Required,
	}
	if s.Items != nil {
		items := s.Items.openAIDefinition(strict)
		def.Items = &items
	}
	if s.Type == TypeObject {
		def.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for name, prop := range s.Properties {
			def.Properties[name] = prop.openAIDefinition(strict)
		}
		if strict {
			def.Required = s.propertyNames()
			def.AdditionalProperties = false
		}
	}
	return def
}

func (s Schema) genaiSchema() *genai.Schema {
	out := &genai.Schema{
		Type:        genaiType(s.Type),
		Description: s.Description,
		Required:    s.Required,
	}
	if s.Items != nil {
		out.Items = s.Items.genaiSchema()
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.genaiSchema()
		}
	}
	return out
}

func genaiType(t SchemaType) genai.Type {
	switch t {
	case TypeObject:
		return genai.TypeObject
	case TypeArray:
		return genai.TypeArray
	case TypeNumber:
		return genai.TypeNumber
	case TypeInteger:
		return genai.TypeInteger
	case TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
