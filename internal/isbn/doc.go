// Package isbn canonicalizes external book identifiers.
//
// Every identifier stored or compared anywhere in bookherald is the
// 13-digit ISBN-13 form. Normalize accepts formatted ISBN-13 and legacy
// ISBN-10 input and converts both; anything else is rejected without
// error so callers can skip unidentifiable records.
package isbn
