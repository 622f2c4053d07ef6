// Package runtime implements the interpreter and runtime value system for lox-lang.
package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"lox-lang/internal/ast"
)

// Value is the interface for all runtime values.
type Value interface {
	TypeName() string
	String() string
}

// ---- Primitive values ----

// NilVal represents the absence of a value.
type NilVal struct{}

func (v NilVal) TypeName() string { return "nil" }
func (v NilVal) String() string   { return "nil" }

// BoolVal represents a boolean value.
type BoolVal bool

func (v BoolVal) TypeName() string { return "bool" }
func (v BoolVal) String() string   { return fmt.Sprintf("%t", bool(v)) }

// NumberVal represents a number. Lox has a single numeric type backed by
// a Go float64; there is no separate integer representation.
type NumberVal float64

func (v NumberVal) TypeName() string { return "number" }
func (v NumberVal) String() string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 64)
	return s
}

// StringVal represents a string value.
type StringVal string

func (v StringVal) TypeName() string { return "string" }
func (v StringVal) String() string   { return string(v) }

// ---- Callable values ----

// NativeFunction wraps a Go function as a callable Lox value.
type NativeFunction struct {
	Name  string
	Arity int
	Fn    func(interp *Interpreter, args []Value) (Value, error)
}

func (v *NativeFunction) TypeName() string { return "native function" }
func (v *NativeFunction) String() string   { return fmt.Sprintf("<native fn %s>", v.Name) }

// Function represents a user-defined function or method, closed over the
// environment active at the point it was declared.
type Function struct {
	Decl          *ast.FunctionDecl
	Closure       *Environment
	IsInitializer bool
}

func (v *Function) TypeName() string { return "function" }
func (v *Function) String() string   { return fmt.Sprintf("<fn %s>", v.Decl.Name.Lexeme) }

// Bind returns a copy of the method bound to instance, so that `this`
// inside its body resolves to instance.
func (v *Function) Bind(instance *Instance) *Function {
	env := NewEnvironment(v.Closure)
	env.Define("this", instance)
	return &Function{Decl: v.Decl, Closure: env, IsInitializer: v.IsInitializer}
}

// ---- OOP values ----

// Class represents a class definition: its name, its methods, and its
// single superclass (nil if none).
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
}

func (v *Class) TypeName() string { return "class" }
func (v *Class) String() string   { return v.Name }

// FindMethod looks up name on the class itself, then walks up the
// superclass chain.
func (v *Class) FindMethod(name string) (*Function, bool) {
	if fn, ok := v.Methods[name]; ok {
		return fn, true
	}
	if v.Superclass != nil {
		return v.Superclass.FindMethod(name)
	}
	return nil, false
}

// Instance represents an instance of a class with its own field set.
type Instance struct {
	Class  *Class
	Fields map[string]Value
}

// NewInstance creates a fresh, fieldless instance of class.
func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: make(map[string]Value)}
}

func (v *Instance) TypeName() string { return v.Class.Name }
func (v *Instance) String() string   { return v.Class.Name + " instance" }

// Get reads a field, falling back to a bound method of the same name.
func (v *Instance) Get(name string) (Value, bool) {
	if val, ok := v.Fields[name]; ok {
		return val, true
	}
	if method, ok := v.Class.FindMethod(name); ok {
		return method.Bind(v), true
	}
	return nil, false
}

// Set assigns a field on the instance, creating it if it does not exist.
func (v *Instance) Set(name string, value Value) {
	v.Fields[name] = value
}

// ---- Truthiness ----

// IsTruthy returns Lox's truthiness rule: nil and false are falsy,
// everything else — including 0 and the empty string — is truthy.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case NilVal:
		return false
	case BoolVal:
		return bool(val)
	default:
		return true
	}
}

// ---- Helpers ----

// ValuesString formats a slice of values with a separator.
func ValuesString(vals []Value, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}
