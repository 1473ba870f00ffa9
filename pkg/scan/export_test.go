package scan

var UprightImage = uprightImage
