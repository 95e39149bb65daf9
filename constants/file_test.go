package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedExt(t *testing.T) {
	assert.True(t, AllowedExt(".pdf"))
	assert.True(t, AllowedExt("PDF"))
	assert.True(t, AllowedExt(".JPG"))
	assert.True(t, AllowedExt("xml"))
	assert.False(t, AllowedExt(".txt"))
	assert.False(t, AllowedExt(""))
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden(".DS_Store"))
	assert.True(t, IsHidden("/Aplicaciones/FacturasIBS/.oculto.pdf"))
	assert.False(t, IsHidden("factura.pdf"))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "factura", BaseName("factura.pdf"))
	assert.Equal(t, "factura", BaseName("/Aplicaciones/FacturasIBS/factura.pdf"))
	assert.Equal(t, "FOLIO A", BaseName("FOLIO A.jpg"))
	assert.Equal(t, "sin_extension", BaseName("sin_extension"))
}
