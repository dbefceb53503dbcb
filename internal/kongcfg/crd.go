// Where: cli/internal/kongcfg/crd.go
// What: Kube custom resource envelope around the gateway document.
package kongcfg

import (
	sigsyaml "sigs.k8s.io/yaml"
)

const (
	crdAPIVersion = "shipcat.babylontech.co.uk/v1"
	crdKind       = "KongConfig"
)

// CRD wraps an Output for cluster-side reconciliation.
type CRD struct {
	APIVersion string   `json:"apiVersion"`
	Kind       string   `json:"kind"`
	Metadata   Metadata `json:"metadata"`
	Spec       *Output  `json:"spec"`
}

type Metadata struct {
	Name string `json:"name"`
}

// NewCRD wraps the gateway document for a region.
func NewCRD(region string, out *Output) CRD {
	return CRD{
		APIVersion: crdAPIVersion,
		Kind:       crdKind,
		Metadata:   Metadata{Name: "shipcat-kong-" + region},
		Spec:       out,
	}
}

func (c CRD) ToYAML() ([]byte, error) {
	return sigsyaml.Marshal(c)
}
