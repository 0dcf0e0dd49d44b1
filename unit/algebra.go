package unit

import (
	"math"

	"github.com/unitsys/resolver/resolver"
)

// algebra implements resolver.Algebra[UnitInfo], giving the generic
// shunting-yard engine its unit-specific meaning. It holds a read-only
// reference to the dictionary being built (or already frozen) so that
// FromName can be used both to resolve the final public dictionary and,
// recursively, to resolve the seed expressions that build it.
type algebra struct {
	dict *dictionary
}

func (a *algebra) FromNumber(value float64) (UnitInfo, error) {
	return UnitInfo{Exponents: make([]int32, a.dict.dim), Factor: value, Offset: 0}, nil
}

func (a *algebra) FromName(name string) (UnitInfo, bool) {
	return a.dict.lookup(name)
}

func (a *algebra) Suggest(name string) []string {
	return a.dict.suggest(name)
}

func (a *algebra) ApplyUnary(token byte, x UnitInfo) (UnitInfo, error) {
	switch token {
	case '+':
		return x, nil
	case '-':
		return UnitInfo{Exponents: cloneExponents(x.Exponents), Factor: -x.Factor, Offset: -x.Offset}, nil
	default:
		return UnitInfo{}, newAlgebraError(resolver.KindSyntaxError, "unknown unary operator")
	}
}

func (a *algebra) ApplyBinary(token byte, left, right UnitInfo) (UnitInfo, error) {
	switch token {
	case '^':
		return a.power(left, right)
	case '*':
		return a.mulDiv(left, right, false)
	case '/':
		return a.mulDiv(left, right, true)
	case '+':
		return a.addSub(left, right, false)
	case '-':
		return a.addSub(left, right, true)
	default:
		return UnitInfo{}, newAlgebraError(resolver.KindSyntaxError, "unknown binary operator")
	}
}

func (a *algebra) ApplyFunction(name string, args []UnitInfo) (UnitInfo, error) {
	switch name {
	case "pow":
		if len(args) != 2 {
			return UnitInfo{}, newAlgebraError(resolver.KindSyntaxError, "pow expects 2 arguments")
		}
		return a.power(args[0], args[1])
	default:
		return UnitInfo{}, newAlgebraError(resolver.KindSyntaxError, "unknown function "+name)
	}
}

func (a *algebra) power(x, y UnitInfo) (UnitInfo, error) {
	if !y.IsConstant() {
		return UnitInfo{}, errNonConstantPower()
	}
	if x.Offset != 0 {
		return UnitInfo{}, errOffsetPower()
	}
	exponents, err := scaleExponents(x.Exponents, y.Factor)
	if err != nil {
		return UnitInfo{}, err
	}
	return UnitInfo{
		Exponents: exponents,
		Factor:    math.Pow(x.Factor, y.Factor),
		Offset:    0,
	}, nil
}

func (a *algebra) mulDiv(left, right UnitInfo, divide bool) (UnitInfo, error) {
	leftOK := left.Offset == 0 || right.IsConstant()
	rightOK := right.Offset == 0 || left.IsConstant()
	if !leftOK || !rightOK {
		return UnitInfo{}, errOffsetMixing()
	}

	var factor float64
	var exponents []int32
	if divide {
		factor = left.Factor / right.Factor
		exponents = subExponents(left.Exponents, right.Exponents)
	} else {
		factor = left.Factor * right.Factor
		exponents = addExponents(left.Exponents, right.Exponents)
	}
	return UnitInfo{Exponents: exponents, Factor: factor, Offset: left.Offset + right.Offset}, nil
}

func (a *algebra) addSub(left, right UnitInfo, subtract bool) (UnitInfo, error) {
	sign := 1.0
	if subtract {
		sign = -1.0
	}

	leftConst := left.IsConstant()
	rightConst := right.IsConstant()

	if leftConst && rightConst {
		return UnitInfo{
			Exponents: cloneExponents(left.Exponents),
			Factor:    left.Factor + sign*right.Factor,
			Offset:    0,
		}, nil
	}

	if leftConst != rightConst {
		// exactly one side is constant: it is absorbed into the
		// offset of the non-constant side.
		if leftConst {
			return UnitInfo{
				Exponents: cloneExponents(right.Exponents),
				Factor:    sign * right.Factor,
				Offset:    left.Factor + sign*right.Offset,
			}, nil
		}
		return UnitInfo{
			Exponents: cloneExponents(left.Exponents),
			Factor:    left.Factor,
			Offset:    left.Offset + sign*right.Factor,
		}, nil
	}

	if left.Offset != 0 && right.Offset != 0 {
		return UnitInfo{}, errOffsetMixing()
	}
	if !Commensurable(left, right) {
		return UnitInfo{}, errIncommensurable()
	}

	factor := left.Factor + sign*right.Factor
	offset := left.Offset + sign*right.Offset
	if factor == 0 {
		offset = 0
	}
	return UnitInfo{
		Exponents: cloneExponents(left.Exponents),
		Factor:    factor,
		Offset:    offset,
	}, nil
}
