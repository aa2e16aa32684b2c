// Package credentials generates kid-friendly access codes students use to
// sign in on a shared device, in place of passwords they could not remember.
package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Word lists for generating pronounceable, child-friendly access codes.
var colors = []string{
	"rojo", "azul", "verde", "lila", "rosa", "gris", "oro", "plata",
	"coral", "menta", "cielo", "miel", "uva", "limon", "mango", "fresa",
}

var animals = []string{
	"gato", "perro", "oso", "leon", "pato", "rana", "lobo", "zorro",
	"puma", "mono", "tigre", "buho", "pez", "foca", "koala", "panda",
}

// GenerateAccessCode returns a code in the form "color-animal-NN".
func GenerateAccessCode() (string, error) {
	color, err := randomElement(colors)
	if err != nil {
		return "", err
	}

	animal, err := randomElement(animals)
	if err != nil {
		return "", err
	}

	n, err := rand.Int(rand.Reader, big.NewInt(100))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%02d", color, animal, n.Int64()), nil
}

func randomElement(slice []string) (string, error) {
	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}
	return slice[num.Int64()], nil
}
