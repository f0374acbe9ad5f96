package gateway

import "phishdetect/internal/ports"

// ResponseSchema is the shape requested from the model. It is shared by all
// calls and must not be modified.
var ResponseSchema = &ports.Schema{
	Type: ports.SchemaObject,
	Properties: map[string]*ports.Schema{
		"riskScore": {Type: ports.SchemaNumber},
		"verdict": {
			Type:        ports.SchemaString,
			Description: "Must be EXACTLY one of: SAFE, SUSPICIOUS, DANGEROUS",
		},
		"redFlags": {
			Type:  ports.SchemaArray,
			Items: &ports.Schema{Type: ports.SchemaString},
		},
		"explanation": {Type: ports.SchemaString},
		"heuristics": {
			Type: ports.SchemaObject,
			Properties: map[string]*ports.Schema{
				"linguisticManipulation": {Type: ports.SchemaNumber, Description: "Score from 0-10"},
				"linkEntropy":            {Type: ports.SchemaNumber, Description: "Score from 0-10"},
				"domainMasking":          {Type: ports.SchemaNumber, Description: "Score from 0-10"},
			},
			Required: []string{"linguisticManipulation", "linkEntropy", "domainMasking"},
		},
	},
	Required: []string{"riskScore", "verdict", "redFlags", "explanation", "heuristics"},
}
