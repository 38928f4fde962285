package errz

// ErrorCode represents a unique identifier for error types.
// Codes are organized by category:
//   - E1xxx: Name and literal errors
//   - E2xxx: Type errors
//   - E3xxx: Lowering errors and compiler limits
type ErrorCode string

const (
	// Name errors (E1xxx)
	E1001 ErrorCode = "E1001" // Unknown identifier
	E1002 ErrorCode = "E1002" // Duplicate declaration
	E1003 ErrorCode = "E1003" // Ambiguous identifier
	E1004 ErrorCode = "E1004" // Not a type
	E1005 ErrorCode = "E1005" // Struct used as value
	E1006 ErrorCode = "E1006" // Unknown member
	E1007 ErrorCode = "E1007" // Scope is finalized
	E1008 ErrorCode = "E1008" // Invalid literal

	// Type errors (E2xxx)
	E2001 ErrorCode = "E2001" // Incompatible operand types
	E2002 ErrorCode = "E2002" // Circular type dependency
	E2003 ErrorCode = "E2003" // Return type mismatch
	E2004 ErrorCode = "E2004" // Assignment to non-addressable expression
	E2005 ErrorCode = "E2005" // Wrong argument count
	E2006 ErrorCode = "E2006" // Not callable
	E2007 ErrorCode = "E2007" // Cannot infer type
	E2008 ErrorCode = "E2008" // Dependency chain too deep
	E2009 ErrorCode = "E2009" // Condition is not bool
	E2010 ErrorCode = "E2010" // Assignment to constant
	E2011 ErrorCode = "E2011" // Type too large
	E2012 ErrorCode = "E2012" // Missing return

	// Lowering errors (E3xxx)
	E3001 ErrorCode = "E3001" // Unsupported operator
	E3002 ErrorCode = "E3002" // Unsupported value kind
	E3003 ErrorCode = "E3003" // Frame too large
	E3004 ErrorCode = "E3004" // Too many constants
	E3005 ErrorCode = "E3005" // Static storage too large
	E3006 ErrorCode = "E3006" // Internal invariant broken
)

// codeDescriptions maps error codes to their short descriptions.
var codeDescriptions = map[ErrorCode]string{
	E1001: "unknown identifier",
	E1002: "duplicate declaration",
	E1003: "ambiguous identifier",
	E1004: "not a type",
	E1005: "struct used as value",
	E1006: "unknown member",
	E1007: "scope is finalized",
	E1008: "invalid literal",

	E2001: "incompatible operand types",
	E2002: "circular type dependency",
	E2003: "return type mismatch",
	E2004: "assignment to non-addressable expression",
	E2005: "wrong argument count",
	E2006: "not callable",
	E2007: "cannot infer type",
	E2008: "dependency chain too deep",
	E2009: "condition is not bool",
	E2010: "assignment to constant",
	E2011: "type too large",
	E2012: "missing return",

	E3001: "unsupported operator",
	E3002: "unsupported value kind",
	E3003: "frame too large",
	E3004: "too many constants",
	E3005: "static storage too large",
	E3006: "internal invariant broken",
}

// Description returns a short description of the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return ""
}

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}
