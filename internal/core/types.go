package core

import "ontocore/pkg/ontology"

type (
	Container          = ontology.Container
	ContainerProvider  = ontology.ContainerProvider
	PropertyType       = ontology.PropertyType
	StorageTag         = ontology.StorageTag
	Value              = ontology.Value
	OntologyObject     = ontology.OntologyObject
	PropertyDescriptor = ontology.PropertyDescriptor
	DomainDescriptor   = ontology.DomainDescriptor
	DomainProperty     = ontology.DomainProperty
	DomainPropertyView = ontology.DomainPropertyView
	ObjectProperty     = ontology.ObjectProperty
	PropertyRow        = ontology.PropertyRow
	DescriptorKey      = ontology.DescriptorKey
	ValidationError    = ontology.ValidationError
	NotFoundError      = ontology.NotFoundError
	TypeConflictError  = ontology.TypeConflictError
)

const (
	TagString   = ontology.TagString
	TagFloat    = ontology.TagFloat
	TagDateTime = ontology.TagDateTime
)
