// Package bridge mirrors classes of a foreign object runtime as Go values and
// invokes their members.
//
// A Registry owns one Type per foreign class. Types are created on first
// reference and cataloged on first use: public constructors, methods and
// fields are reflected into descriptors whose parameters carry a bound
// assessor and converter. Calls pick an overload by scoring every candidate
// against the Go arguments, convert the arguments, invoke the foreign
// runtime and convert the result back.
//
// Go values cross the boundary as follows:
//
//	nil                        null reference, or zero for a primitive
//	bool, Go integers, floats  primitive and wrapper types
//	string                     java.lang.String
//	*Instance                  any other object, by durable handle
//	Buffer (*PrimitiveArray)   primitive arrays, copied in and back out
//
// Call-scoped foreign handles never outlive the call that created them.
// Durable handles are owned by a Type or an Instance and released exactly
// once, by Registry.Close or Instance.Release.
package bridge

import "github.com/tliron/commonlog"

var log = commonlog.GetLogger("jbridge.bridge")
