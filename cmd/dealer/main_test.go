package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kigundalevi/carsawa/internal/model"
)

func TestParseIndexesDescending(t *testing.T) {
	got, err := parseIndexes("0, 2,1")
	require.NoError(t, err)
	require.Equal(t, []int{2, 1, 0}, got, "removals must run highest index first")

	got, err = parseIndexes("3")
	require.NoError(t, err)
	require.Equal(t, []int{3}, got)

	_, err = parseIndexes("1,x")
	require.Error(t, err)
}

func TestApplySetFlagsOnlyTouchesSetFlags(t *testing.T) {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	var src model.CarFields
	_ = bindCarFlags(fs, &src)
	require.NoError(t, fs.Parse([]string{"-price", "3900000", "-status", "Reserved"}))

	dst := model.CarFields{
		Name: "Toyota Land Cruiser", Make: "Toyota", Model: "Land Cruiser",
		Year: 2020, Price: 4500000, EngineSize: "4.0L", Color: "Black",
		Condition: model.ConditionUsed, Transmission: model.TransmissionAutomatic,
		FuelType: model.FuelPetrol, BodyType: model.BodySUV, Status: model.StatusAvailable,
	}
	applySetFlags(fs, &dst, src)

	require.Equal(t, int64(3900000), dst.Price)
	require.Equal(t, model.StatusReserved, dst.Status)
	require.Equal(t, "Toyota Land Cruiser", dst.Name, "unset flags leave loaded values intact")
	require.Equal(t, 2020, dst.Year)
	require.Equal(t, model.BodySUV, dst.BodyType)
}

func TestBindCarFlagsParsesEnums(t *testing.T) {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	var f model.CarFields
	images := bindCarFlags(fs, &f)
	require.NoError(t, fs.Parse([]string{
		"-name", "VW Golf", "-make", "Volkswagen", "-model", "Golf",
		"-year", "2019", "-price", "1800000", "-engine", "1.4L", "-color", "White",
		"-condition", "Used", "-transmission", "Manual", "-fuel", "Petrol",
		"-body", "Hatchback", "-status", "Available",
		"-images", "a.jpg,b.jpg",
	}))
	require.Equal(t, model.TransmissionManual, f.Transmission)
	require.Equal(t, model.BodyHatchback, f.BodyType)
	require.Equal(t, "a.jpg,b.jpg", *images)
}

func TestReadUpload(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(p, []byte("jpegbytes"), 0o600))

	up, err := readUpload(p)
	require.NoError(t, err)
	require.Equal(t, "photo.jpg", up.Filename)
	require.Equal(t, []byte("jpegbytes"), up.Data)

	_, err = readUpload(filepath.Join(dir, "missing.jpg"))
	require.Error(t, err)
}
