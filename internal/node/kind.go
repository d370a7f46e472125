package node

// Kind is the payload tag of a node record.
type Kind uint8

const (
	// KindUnknown is the zero Kind and never stored.
	KindUnknown Kind = iota
	// KindDocument is the document root of a revision.
	KindDocument
	// KindObject is a JSON object.
	KindObject
	// KindArray is a JSON array.
	KindArray
	// KindObjectKey is a JSON object member; its single child is the value.
	KindObjectKey
	// KindString is a JSON string value.
	KindString
	// KindNumber is a JSON number value, stored in its textual form.
	KindNumber
	// KindBoolean is a JSON boolean value.
	KindBoolean
	// KindNull is the JSON null value.
	KindNull
	// KindElement is an XML element.
	KindElement
	// KindAttribute is an XML attribute.
	KindAttribute
	// KindText is an XML text node.
	KindText
	// KindComment is an XML comment.
	KindComment

	kindCount
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "Document"
	case KindObject:
		return "Object"
	case KindArray:
		return "Array"
	case KindObjectKey:
		return "ObjectKey"
	case KindString:
		return "String"
	case KindNumber:
		return "Number"
	case KindBoolean:
		return "Boolean"
	case KindNull:
		return "Null"
	case KindElement:
		return "Element"
	case KindAttribute:
		return "Attribute"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	default:
		return "Unknown"
	}
}

// Valid returns true for every storable kind.
func (k Kind) Valid() bool {
	return k > KindUnknown && k < kindCount
}

// HasStructure returns true if nodes of this kind may have children.
func (k Kind) HasStructure() bool {
	switch k {
	case KindDocument, KindObject, KindArray, KindObjectKey, KindElement:
		return true
	default:
		return false
	}
}

// HasName returns true if the payload carries a name.
func (k Kind) HasName() bool {
	switch k {
	case KindObjectKey, KindElement, KindAttribute:
		return true
	default:
		return false
	}
}

// HasValue returns true if the payload carries a value.
func (k Kind) HasValue() bool {
	switch k {
	case KindString, KindNumber, KindBoolean, KindAttribute, KindText, KindComment:
		return true
	default:
		return false
	}
}
