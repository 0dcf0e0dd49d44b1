// Package resolver implements a reusable shunting-yard expression
// evaluator, generic over a variable type. It knows nothing about units;
// callers supply an Algebra[T] that gives meaning to numeric literals,
// names, and operator application. See package unit for the concrete
// specialisation.
package resolver

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Algebra is the capability set a variable type must provide so the
// generic engine can evaluate expressions over it. Implementations are
// expected to be stateless with respect to a single call: all the
// state that changes during evaluation lives in the engine's scratch.
type Algebra[T any] interface {
	// FromNumber builds a variable out of a parsed numeric literal.
	FromNumber(value float64) (T, error)
	// FromName looks up a variable by its dictionary name. The second
	// return value is false on a lookup miss.
	FromName(name string) (T, bool)
	// Suggest returns near-match name suggestions for diagnostics,
	// used only after a FromName miss. May return nil.
	Suggest(name string) []string
	// ApplyUnary applies a registered unary operator token.
	ApplyUnary(token byte, x T) (T, error)
	// ApplyBinary applies a registered binary operator token; left and
	// right are already in left-to-right order.
	ApplyBinary(token byte, left, right T) (T, error)
	// ApplyFunction applies a registered function by name; args are in
	// left-to-right order.
	ApplyFunction(name string, args []T) (T, error)
}

// Resolver is a shunting-yard expression evaluator parameterised over a
// variable algebra. The zero value is not usable; construct with New.
// A Resolver is immutable once the first Resolve call has happened:
// further AddUnary/AddBinary/AddFunction calls fail.
type Resolver[T any] struct {
	algebra   Algebra[T]
	unary     map[byte]OperatorInfo
	binary    map[byte]OperatorInfo
	functions map[string]functionInfo
	resolved  atomic.Bool
	scratch   sync.Pool
}

// New constructs a Resolver around the given variable algebra. Register
// operators and functions with AddUnary/AddBinary/AddFunction before
// the first call to Resolve.
func New[T any](algebra Algebra[T]) *Resolver[T] {
	r := &Resolver[T]{
		algebra:   algebra,
		unary:     make(map[byte]OperatorInfo),
		binary:    make(map[byte]OperatorInfo),
		functions: make(map[string]functionInfo),
	}
	r.scratch.New = func() any { return newScratch[T]() }
	return r
}

func (r *Resolver[T]) checkMutable() error {
	if r.resolved.Load() {
		return fmt.Errorf("resolver: cannot register operators after the first resolution")
	}
	return nil
}

// AddUnary registers a single-character prefix operator. Precedence is
// fixed at 254 and associativity at right-associative, per the
// generic engine's contract.
func (r *Resolver[T]) AddUnary(token byte) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	if isReservedToken(token) {
		return fmt.Errorf("resolver: %q is a reserved token", token)
	}
	r.unary[token] = OperatorInfo{Token: token, Arity: Unary, Precedence: 254, RightAssociative: true}
	return nil
}

// AddBinary registers a single-character infix operator.
func (r *Resolver[T]) AddBinary(token byte, precedence uint8, rightAssociative bool) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	if isReservedToken(token) {
		return fmt.Errorf("resolver: %q is a reserved token", token)
	}
	if precedence > 253 {
		return fmt.Errorf("resolver: binary precedence must be 0..253, got %d", precedence)
	}
	r.binary[token] = OperatorInfo{Token: token, Arity: Binary, Precedence: precedence, RightAssociative: rightAssociative}
	return nil
}

// AddFunction registers a function name. arity must be >= 1, or
// Variadic to accept any count >= 1.
func (r *Resolver[T]) AddFunction(name string, arity int) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	trimmed := trimSpaces(name)
	if trimmed == "" {
		return fmt.Errorf("resolver: function name must be non-empty after trimming")
	}
	if arity != int(Variadic) && arity < 1 {
		return fmt.Errorf("resolver: function arity must be >= 1 or Variadic")
	}
	r.functions[trimmed] = functionInfo{name: trimmed, arity: arity}
	return nil
}

func trimSpaces(s string) string {
	start, end := 0, len(s)
	for start < end && s[start] == ' ' {
		start++
	}
	for end > start && s[end-1] == ' ' {
		end--
	}
	return s[start:end]
}

// Resolve parses expr and evaluates it against the registered algebra.
// It is safe to call concurrently from multiple goroutines; each call
// uses independent scratch.
func (r *Resolver[T]) Resolve(expr string) (T, error) {
	r.resolved.Store(true)
	sc := r.scratch.Get().(*scratch[T])
	defer func() {
		sc.reset()
		r.scratch.Put(sc)
	}()
	return r.evaluate(expr, sc)
}

// TryResolve is the throw-on-failure convenience surface mentioned in
// the core API: it panics instead of returning an error. Intended for
// callers who have already validated the expression (e.g. tests,
// static configuration) and want to fail fast on programmer error.
func (r *Resolver[T]) TryResolve(expr string) T {
	v, err := r.Resolve(expr)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *Resolver[T]) evaluate(expr string, sc *scratch[T]) (T, error) {
	var zero T
	i := 0
	for i < len(expr) {
		c := expr[i]
		if c == ' ' {
			i++
			continue
		}

		if c == '(' {
			sc.pushOp(opEntry[T]{isGroup: true, pos: i, startDepth: len(sc.operands)})
			i++
			continue
		}

		if c == ',' || c == ')' {
			if prev, ok := lastNonSpaceByte(expr, i); ok && (prev == ',' || prev == '(') {
				return zero, newSyntaxError(expr, "Unexpected comma", i)
			}
			if err := r.closeGroup(expr, sc, i, c == ','); err != nil {
				return zero, err
			}
			i++
			continue
		}

		prev, hasPrev := lastNonSpaceByte(expr, i)
		isPrefixPos := !hasPrev || prev == '(' || prev == ',' || r.isOperatorByte(prev)

		if isPrefixPos {
			if op, ok := r.unary[c]; ok {
				if err := r.pushOperator(expr, sc, op, i); err != nil {
					return zero, err
				}
				i++
				continue
			}
		} else {
			if op, ok := r.binary[c]; ok {
				if err := r.pushOperator(expr, sc, op, i); err != nil {
					return zero, err
				}
				i++
				continue
			}
		}

		token, newI := r.scanSubtoken(expr, i)
		if token == "" {
			token = string(c)
			newI = i + 1
		}

		if f, ok := parseFloatInvariant(token); ok {
			v, err := r.algebra.FromNumber(f)
			if err != nil {
				return zero, err
			}
			sc.pushOperand(v)
			i = newI
			continue
		}

		if fi, ok := r.functions[token]; ok {
			sc.pushOp(opEntry[T]{isFunc: true, funcName: fi.name, pos: i})
			i = newI
			continue
		}

		if v, ok := r.algebra.FromName(token); ok {
			sc.pushOperand(v)
			i = newI
			continue
		}

		if looksNumeric(token) {
			return zero, newNumericParseError(expr, token, i)
		}
		return zero, newUnknownNameError(expr, token, i, r.algebra.Suggest(token))
	}

	for {
		top, ok := sc.peekOp()
		if !ok {
			break
		}
		if top.isGroup {
			return zero, newSyntaxError(expr, "Missing right parenthesis", top.pos)
		}
		sc.popOp()
		if err := r.apply(expr, sc, top); err != nil {
			return zero, err
		}
	}

	switch len(sc.operands) {
	case 0:
		return zero, newSyntaxError(expr, "No variables found", -1)
	case 1:
		return sc.operands[0], nil
	default:
		return zero, newSyntaxError(expr, "Variables remain on stack", -1)
	}
}

// pushOperator applies the shunting-yard precedence/associativity rule
// before pushing the incoming operator: pop and apply while the stack
// top binds tighter (or equal and the incoming operator is
// left-associative). Group and function markers are barriers and are
// never popped here.
func (r *Resolver[T]) pushOperator(expr string, sc *scratch[T], incoming OperatorInfo, pos int) error {
	for {
		top, ok := sc.peekOp()
		if !ok || top.isGroup || top.isFunc {
			break
		}
		if top.op.Precedence > incoming.Precedence || (top.op.Precedence == incoming.Precedence && !incoming.RightAssociative) {
			sc.popOp()
			if err := r.apply(expr, sc, top); err != nil {
				return err
			}
			continue
		}
		break
	}
	sc.pushOp(opEntry[T]{op: incoming, pos: pos})
	return nil
}

// closeGroup pops and applies operators until a Group marker is
// popped, then (on ')') applies an enclosing unresolved function call,
// or (on ',') reopens a Group for the next argument.
func (r *Resolver[T]) closeGroup(expr string, sc *scratch[T], pos int, isComma bool) error {
	found := false
	var group opEntry[T]
	for {
		top, ok := sc.popOp()
		if !ok {
			break
		}
		if top.isGroup {
			found = true
			group = top
			break
		}
		if err := r.apply(expr, sc, top); err != nil {
			return err
		}
	}
	if !found {
		return newSyntaxError(expr, "No matching left parenthesis or comma", pos)
	}
	hadArg := len(sc.operands) > group.startDepth

	if top, ok := sc.peekOp(); ok && top.isFunc {
		sc.popOp()
		if hadArg {
			top.argCount++
		}
		if isComma {
			sc.pushOp(opEntry[T]{isFunc: true, funcName: top.funcName, argCount: top.argCount, pos: top.pos})
			sc.pushOp(opEntry[T]{isGroup: true, pos: pos, startDepth: len(sc.operands)})
			return nil
		}
		return r.applyFunction(expr, sc, top)
	}

	if isComma {
		sc.pushOp(opEntry[T]{isGroup: true, pos: pos, startDepth: len(sc.operands)})
	}
	return nil
}

func (r *Resolver[T]) apply(expr string, sc *scratch[T], e opEntry[T]) error {
	if e.isFunc {
		return r.applyFunction(expr, sc, e)
	}
	switch e.op.Arity {
	case Unary:
		x, ok := sc.popOperand()
		if !ok {
			return newMissingOperandError(expr, 1, string(e.op.Token), e.pos)
		}
		v, err := r.algebra.ApplyUnary(e.op.Token, x)
		if err != nil {
			return err
		}
		sc.pushOperand(v)
	case Binary:
		right, ok := sc.popOperand()
		if !ok {
			return newMissingOperandError(expr, 2, string(e.op.Token), e.pos)
		}
		left, ok := sc.popOperand()
		if !ok {
			return newMissingOperandError(expr, 1, string(e.op.Token), e.pos)
		}
		v, err := r.algebra.ApplyBinary(e.op.Token, left, right)
		if err != nil {
			return err
		}
		sc.pushOperand(v)
	}
	return nil
}

func (r *Resolver[T]) applyFunction(expr string, sc *scratch[T], e opEntry[T]) error {
	fi, ok := r.functions[e.funcName]
	if !ok {
		return newSyntaxError(expr, fmt.Sprintf("Unknown function %s", e.funcName), e.pos)
	}
	n := e.argCount
	if fi.arity == int(Variadic) {
		if n < 1 {
			return newSyntaxError(expr, fmt.Sprintf("%s expects at least 1 argument, got %d", fi.name, n), e.pos)
		}
	} else if n != fi.arity {
		return newSyntaxError(expr, fmt.Sprintf("%s expects %d argument(s), got %d", fi.name, fi.arity, n), e.pos)
	}
	if len(sc.operands) < n {
		return newMissingOperandError(expr, n-len(sc.operands), fi.name, e.pos)
	}
	args := make([]T, n)
	for k := n - 1; k >= 0; k-- {
		v, _ := sc.popOperand()
		args[k] = v
	}
	v, err := r.algebra.ApplyFunction(fi.name, args)
	if err != nil {
		return err
	}
	sc.pushOperand(v)
	return nil
}
